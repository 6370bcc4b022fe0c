package models

// ThemingAppID namespaces every theming key in the config store.
const ThemingAppID = "theming"

// Theming config keys.
const (
	SettingName           = "name"
	SettingURL            = "url"
	SettingSlogan         = "slogan"
	SettingColor          = "color"
	SettingLogoMime       = "logoMime"
	SettingBackgroundMime = "backgroundMime"
	SettingCacheBuster    = "cachebuster"
)

// EditableSettings are the text settings an administrator can override.
var EditableSettings = []string{SettingName, SettingURL, SettingSlogan, SettingColor}

// Blob locations in app data.
const (
	ImagesFolder   = "images"
	LogoBlob       = "logo"
	BackgroundBlob = "background"

	CSSFolder      = "css"
	StylesheetBlob = "theming.css"
)

// ThemeSnapshot is the resolved view of every theming value, used by the
// admin settings endpoint.
type ThemeSnapshot struct {
	Name          string `json:"name"`
	HTMLName      string `json:"html_name"`
	URL           string `json:"url"`
	Slogan        string `json:"slogan"`
	Color         string `json:"color"`
	Inverted      bool   `json:"inverted"`
	LogoURL       string `json:"logo_url"`
	BackgroundURL string `json:"background_url"`
	ShortFooter   string `json:"short_footer"`
	CacheBuster   int64  `json:"cache_buster"`

	// Overridden lists the editable settings that have a stored value.
	Overridden []string `json:"overridden"`
}

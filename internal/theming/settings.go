// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theming owns the branding settings: it reads and writes the
// overrides in the app config store, derives the values shown to users and
// keeps the cache-buster counter that versions every derived asset.
package theming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"cloudtheme/internal/cache"
	"cloudtheme/internal/models"
	"cloudtheme/internal/storage"
)

// Asset locations used when no custom image is uploaded, and the routes
// serving uploaded ones.
const (
	DefaultLogoPath       = "/core/img/logo.svg"
	DefaultBackgroundPath = "/core/img/background.jpg"
	LogoRoute             = "/apps/theming/logo"
	BackgroundRoute       = "/apps/theming/loginbackground"
)

// scssVariablesKey is the memo key of the derived stylesheet variables.
const scssVariablesKey = "scssVariables"

// ErrProtectedSetting is returned when a caller tries to write or revert the
// cache-buster counter directly. It only ever moves forward through bump.
var ErrProtectedSetting = errors.New("theming: setting cannot be changed directly")

// Change log actions.
const (
	ActionSet    = "set"
	ActionRevert = "revert"
)

// ConfigStore is the app-scoped key/value store holding the overrides.
type ConfigStore interface {
	GetAppValue(ctx context.Context, app, key string) (string, bool, error)
	SetAppValue(ctx context.Context, app, key, value string) error
	DeleteAppValue(ctx context.Context, app, key string) error
	IncrementAppValue(ctx context.Context, app, key string) (int64, error)
	AppValues(ctx context.Context, app string) (models.AppSettings, error)
}

// ChangeLogger records cache-buster bumps. Implementations must not fail
// the caller.
type ChangeLogger interface {
	Log(ctx context.Context, setting, action string, cacheBuster int64)
}

// Defaults are the instance values shown when nothing is overridden.
type Defaults struct {
	Name   string
	URL    string
	Slogan string
	Color  string
}

// Settings is the theming settings store.
type Settings struct {
	config   ConfigStore
	blobs    storage.Store
	memo     cache.Memo
	defaults Defaults
	changes  ChangeLogger
}

// NewSettings creates a settings store. changes may be nil.
func NewSettings(config ConfigStore, blobs storage.Store, memo cache.Memo, defaults Defaults, changes ChangeLogger) *Settings {
	return &Settings{
		config:   config,
		blobs:    blobs,
		memo:     memo,
		defaults: defaults,
		changes:  changes,
	}
}

// raw returns the stored value for key or fallback when none is stored.
func (s *Settings) raw(ctx context.Context, key, fallback string) (string, error) {
	v, ok, err := s.config.GetAppValue(ctx, models.ThemingAppID, key)
	if err != nil {
		return "", fmt.Errorf("read theming %s: %w", key, err)
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

// Get returns the effective value of a setting. Known fields go through
// their getters; anything else is the stored value or "".
func (s *Settings) Get(ctx context.Context, field string) (string, error) {
	switch field {
	case models.SettingName:
		return s.Name(ctx)
	case models.SettingURL:
		return s.BaseURL(ctx)
	case models.SettingSlogan:
		return s.Slogan(ctx)
	case models.SettingColor:
		return s.Color(ctx)
	default:
		return s.raw(ctx, field, "")
	}
}

// Name is the product name with markup removed.
func (s *Settings) Name(ctx context.Context) (string, error) {
	v, err := s.HTMLName(ctx)
	if err != nil {
		return "", err
	}
	return StripTags(v), nil
}

// HTMLName is the product name as stored.
func (s *Settings) HTMLName(ctx context.Context) (string, error) {
	return s.raw(ctx, models.SettingName, s.defaults.Name)
}

// Title is the page title.
func (s *Settings) Title(ctx context.Context) (string, error) { return s.Name(ctx) }

// Entity is the name of the organisation running the instance.
func (s *Settings) Entity(ctx context.Context) (string, error) { return s.Name(ctx) }

// BaseURL is the product web address.
func (s *Settings) BaseURL(ctx context.Context) (string, error) {
	return s.raw(ctx, models.SettingURL, s.defaults.URL)
}

// Slogan is the HTML-escaped slogan.
func (s *Settings) Slogan(ctx context.Context) (string, error) {
	v, err := s.raw(ctx, models.SettingSlogan, s.defaults.Slogan)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(v), nil
}

// Color is the header color.
func (s *Settings) Color(ctx context.Context) (string, error) {
	return s.raw(ctx, models.SettingColor, s.defaults.Color)
}

// LogoMime is the MIME type recorded for the uploaded logo, or "".
func (s *Settings) LogoMime(ctx context.Context) (string, error) {
	return s.raw(ctx, models.SettingLogoMime, "")
}

// BackgroundMime is the MIME type recorded for the uploaded background, or "".
func (s *Settings) BackgroundMime(ctx context.Context) (string, error) {
	return s.raw(ctx, models.SettingBackgroundMime, "")
}

// CacheBuster is the current cache-buster generation. A missing or
// malformed counter reads as 0.
func (s *Settings) CacheBuster(ctx context.Context) (int64, error) {
	v, err := s.raw(ctx, models.SettingCacheBuster, "0")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ShortFooter is the linked entity name followed by the slogan.
func (s *Settings) ShortFooter(ctx context.Context) (string, error) {
	url, err := s.BaseURL(ctx)
	if err != nil {
		return "", err
	}
	entity, err := s.Entity(ctx)
	if err != nil {
		return "", err
	}
	slogan, err := s.Slogan(ctx)
	if err != nil {
		return "", err
	}

	footer := `<a href="` + url + `" target="_blank" rel="noreferrer">` + entity + `</a>`
	if slogan != "" {
		footer += " – " + slogan
	}
	return footer, nil
}

// LogoURL is the logo route when a logo is uploaded, else the default path.
func (s *Settings) LogoURL(ctx context.Context) (string, error) {
	return s.assetURL(ctx, models.SettingLogoMime, models.LogoBlob, DefaultLogoPath, LogoRoute)
}

// BackgroundURL is the background route when a background is uploaded,
// else the default path.
func (s *Settings) BackgroundURL(ctx context.Context) (string, error) {
	return s.assetURL(ctx, models.SettingBackgroundMime, models.BackgroundBlob, DefaultBackgroundPath, BackgroundRoute)
}

func (s *Settings) assetURL(ctx context.Context, mimeKey, blob, fallback, route string) (string, error) {
	mime, err := s.raw(ctx, mimeKey, "")
	if err != nil {
		return "", err
	}
	if mime == "" {
		return fallback, nil
	}
	exists, err := s.blobs.Exists(ctx, models.ImagesFolder, blob)
	if err != nil {
		return "", fmt.Errorf("check %s blob: %w", blob, err)
	}
	if !exists {
		return fallback, nil
	}
	return route, nil
}

// Set stores value for field and bumps the cache-buster. Callers validate.
func (s *Settings) Set(ctx context.Context, field, value string) error {
	if field == models.SettingCacheBuster {
		return ErrProtectedSetting
	}
	if err := s.config.SetAppValue(ctx, models.ThemingAppID, field, value); err != nil {
		return fmt.Errorf("set theming %s: %w", field, err)
	}
	return s.bump(ctx, field, ActionSet)
}

// Revert removes the override for field, bumps the cache-buster and returns
// the value the field now resolves to. Unknown fields return "". The
// cache-buster itself is never reverted.
func (s *Settings) Revert(ctx context.Context, field string) (string, error) {
	if field == models.SettingCacheBuster {
		return "", ErrProtectedSetting
	}
	if err := s.config.DeleteAppValue(ctx, models.ThemingAppID, field); err != nil {
		return "", fmt.Errorf("revert theming %s: %w", field, err)
	}
	if err := s.bump(ctx, field, ActionRevert); err != nil {
		return "", err
	}

	switch field {
	case models.SettingName:
		return s.Entity(ctx)
	case models.SettingURL:
		return s.BaseURL(ctx)
	case models.SettingSlogan:
		return s.Slogan(ctx)
	case models.SettingColor:
		return s.Color(ctx)
	default:
		return "", nil
	}
}

// bump increments the cache-buster, then drops the memoized variables.
func (s *Settings) bump(ctx context.Context, field, action string) error {
	n, err := s.config.IncrementAppValue(ctx, models.ThemingAppID, models.SettingCacheBuster)
	if err != nil {
		return fmt.Errorf("increment cache buster: %w", err)
	}
	s.memo.Invalidate(ctx, scssVariablesKey)
	slog.Info("theming updated", "setting", field, "action", action, "cachebuster", n)
	if s.changes != nil {
		s.changes.Log(ctx, field, action, n)
	}
	return nil
}

// ScssVariables returns the variables overriding the stylesheet defaults.
// The primary colors are only set when a color is stored.
func (s *Settings) ScssVariables(ctx context.Context) (map[string]string, error) {
	var vars map[string]string
	if s.memo.Get(ctx, scssVariablesKey, &vars) && len(vars) > 0 {
		return vars, nil
	}

	buster, err := s.CacheBuster(ctx)
	if err != nil {
		return nil, err
	}
	logo, err := s.LogoURL(ctx)
	if err != nil {
		return nil, err
	}
	background, err := s.BackgroundURL(ctx)
	if err != nil {
		return nil, err
	}

	vars = map[string]string{
		"theming-cachebuster":    `"` + strconv.FormatInt(buster, 10) + `"`,
		"image-logo":             relativeAsset(logo),
		"image-login-background": relativeAsset(background),
	}

	_, colorSet, err := s.config.GetAppValue(ctx, models.ThemingAppID, models.SettingColor)
	if err != nil {
		return nil, fmt.Errorf("read theming color: %w", err)
	}
	if colorSet {
		color, err := s.Color(ctx)
		if err != nil {
			return nil, err
		}
		vars["color-primary"] = color
		vars["color-primary-text"] = TextColor(color)
	}

	s.memo.Set(ctx, scssVariablesKey, vars)
	return vars, nil
}

// relativeAsset quotes an absolute asset path relative to the compiled
// stylesheet location.
func relativeAsset(path string) string {
	return "'../../" + strings.TrimPrefix(path, "/") + "'"
}

// Snapshot resolves every theming value at once.
func (s *Settings) Snapshot(ctx context.Context) (models.ThemeSnapshot, error) {
	var snap models.ThemeSnapshot
	var err error

	if snap.Name, err = s.Name(ctx); err != nil {
		return snap, err
	}
	if snap.HTMLName, err = s.HTMLName(ctx); err != nil {
		return snap, err
	}
	if snap.URL, err = s.BaseURL(ctx); err != nil {
		return snap, err
	}
	if snap.Slogan, err = s.Slogan(ctx); err != nil {
		return snap, err
	}
	if snap.Color, err = s.Color(ctx); err != nil {
		return snap, err
	}
	snap.Inverted = InvertTextColor(snap.Color)
	if snap.LogoURL, err = s.LogoURL(ctx); err != nil {
		return snap, err
	}
	if snap.BackgroundURL, err = s.BackgroundURL(ctx); err != nil {
		return snap, err
	}
	if snap.ShortFooter, err = s.ShortFooter(ctx); err != nil {
		return snap, err
	}
	if snap.CacheBuster, err = s.CacheBuster(ctx); err != nil {
		return snap, err
	}

	stored, err := s.config.AppValues(ctx, models.ThemingAppID)
	if err != nil {
		return snap, fmt.Errorf("list theming values: %w", err)
	}
	snap.Overridden = []string{}
	for _, field := range models.EditableSettings {
		if stored.Has(field) {
			snap.Overridden = append(snap.Overridden, field)
		}
	}
	return snap, nil
}

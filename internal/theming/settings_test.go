package theming

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudtheme/internal/cache"
	"cloudtheme/internal/models"
	"cloudtheme/internal/storage"
	"cloudtheme/internal/store"
)

var testDefaults = Defaults{
	Name:   "Cloud",
	URL:    "https://cloud.example.com",
	Slogan: "a safe home for all your data",
	Color:  "#0082c9",
}

type recordedChange struct {
	setting, action string
	buster          int64
}

type fakeChanges struct{ entries []recordedChange }

func (f *fakeChanges) Log(_ context.Context, setting, action string, buster int64) {
	f.entries = append(f.entries, recordedChange{setting, action, buster})
}

type fixture struct {
	settings *Settings
	config   *store.MemoryAppConfig
	blobs    *storage.Memory
	memo     *cache.MemoryMemo
	changes  *fakeChanges
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		config:  store.NewMemoryAppConfig(),
		blobs:   storage.NewMemory(),
		memo:    cache.NewMemoryMemo("theming"),
		changes: &fakeChanges{},
	}
	f.settings = NewSettings(f.config, f.blobs, f.memo, testDefaults, f.changes)
	return f
}

func (f *fixture) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := f.config.GetAppValue(context.Background(), models.ThemingAppID, key)
	require.NoError(t, err)
	return v, ok
}

func TestGetDefaults(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t).settings

	tests := map[string]string{
		models.SettingName:     "Cloud",
		models.SettingURL:      "https://cloud.example.com",
		models.SettingSlogan:   "a safe home for all your data",
		models.SettingColor:    "#0082c9",
		models.SettingLogoMime: "",
		"unknown":              "",
	}
	for field, want := range tests {
		got, err := s.Get(ctx, field)
		require.NoError(t, err)
		assert.Equal(t, want, got, field)
	}

	buster, err := s.CacheBuster(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), buster)
}

func TestNameAndSloganSanitizing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	require.NoError(t, s.Set(ctx, models.SettingName, "<b>Acme</b> &amp; Co"))
	require.NoError(t, s.Set(ctx, models.SettingSlogan, `<script>"x" & 'y'</script>`))

	name, _ := s.Name(ctx)
	assert.Equal(t, "Acme &amp; Co", name)
	html, _ := s.HTMLName(ctx)
	assert.Equal(t, "<b>Acme</b> &amp; Co", html)
	title, _ := s.Title(ctx)
	assert.Equal(t, name, title)

	slogan, _ := s.Slogan(ctx)
	assert.Equal(t, "&lt;script&gt;&#34;x&#34; &amp; &#39;y&#39;&lt;/script&gt;", slogan)
}

func TestSetBumpsCacheBusterOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	for i, field := range []string{models.SettingName, models.SettingURL, models.SettingColor} {
		require.NoError(t, s.Set(ctx, field, "#ABC"))
		buster, err := s.CacheBuster(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), buster)
	}

	v, ok := f.stored(t, models.SettingColor)
	assert.True(t, ok)
	assert.Equal(t, "#ABC", v)

	require.Len(t, f.changes.entries, 3)
	assert.Equal(t, recordedChange{models.SettingColor, ActionSet, 3}, f.changes.entries[2])
}

func TestRevertReturnsDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	tests := []struct {
		field string
		value string
		want  string
	}{
		{models.SettingName, "Acme", "Cloud"},
		{models.SettingURL, "https://acme.test", "https://cloud.example.com"},
		{models.SettingSlogan, "Hi", "a safe home for all your data"},
		{models.SettingColor, "#ABC", "#0082c9"},
		{models.SettingLogoMime, "image/png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, tt.field, tt.value))
			before, _ := s.CacheBuster(ctx)

			got, err := s.Revert(ctx, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			after, _ := s.CacheBuster(ctx)
			assert.Equal(t, before+1, after)

			_, ok := f.stored(t, tt.field)
			assert.False(t, ok, "override must be gone")

			current, _ := s.Get(ctx, tt.field)
			assert.Equal(t, tt.want, current)
		})
	}
}

func TestCacheBusterCannotBeResetDirectly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	require.NoError(t, s.Set(ctx, models.SettingName, "Acme"))
	require.NoError(t, s.Set(ctx, models.SettingColor, "#ff0000"))

	_, err := s.Revert(ctx, models.SettingCacheBuster)
	assert.ErrorIs(t, err, ErrProtectedSetting)
	assert.ErrorIs(t, s.Set(ctx, models.SettingCacheBuster, "0"), ErrProtectedSetting)

	v, ok := f.stored(t, models.SettingCacheBuster)
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Len(t, f.changes.entries, 2, "rejected writes are not logged")

	require.NoError(t, s.Set(ctx, models.SettingSlogan, "next"))
	n, err := s.CacheBuster(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRevertUnsetFieldStillBumps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.settings.Revert(ctx, "whatever")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	buster, _ := f.settings.CacheBuster(ctx)
	assert.Equal(t, int64(1), buster)
	assert.Equal(t, ActionRevert, f.changes.entries[0].action)
}

func TestRevertNameIgnoresOtherOverrides(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t).settings

	require.NoError(t, s.Set(ctx, models.SettingColor, "#123456"))
	require.NoError(t, s.Set(ctx, models.SettingName, "Acme"))

	got, err := s.Revert(ctx, models.SettingName)
	require.NoError(t, err)
	assert.Equal(t, "Cloud", got)

	color, _ := s.Color(ctx)
	assert.Equal(t, "#123456", color)
}

func TestCacheBusterMalformedReadsZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.config.SetAppValue(ctx, models.ThemingAppID, models.SettingCacheBuster, "nope"))

	buster, err := f.settings.CacheBuster(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), buster)
}

func TestAssetURLs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		mime     string
		blob     bool
		wantLogo string
	}{
		{"nothing", "", false, DefaultLogoPath},
		{"mime without blob", "image/png", false, DefaultLogoPath},
		{"blob without mime", "", true, DefaultLogoPath},
		{"mime and blob", "image/png", true, LogoRoute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.mime != "" {
				require.NoError(t, f.config.SetAppValue(ctx, models.ThemingAppID, models.SettingLogoMime, tt.mime))
				require.NoError(t, f.config.SetAppValue(ctx, models.ThemingAppID, models.SettingBackgroundMime, tt.mime))
			}
			if tt.blob {
				require.NoError(t, f.blobs.Put(ctx, models.ImagesFolder, models.LogoBlob, []byte("x")))
				require.NoError(t, f.blobs.Put(ctx, models.ImagesFolder, models.BackgroundBlob, []byte("x")))
			}

			logo, err := f.settings.LogoURL(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLogo, logo)

			bg, err := f.settings.BackgroundURL(ctx)
			require.NoError(t, err)
			if tt.wantLogo == LogoRoute {
				assert.Equal(t, BackgroundRoute, bg)
			} else {
				assert.Equal(t, DefaultBackgroundPath, bg)
			}
		})
	}
}

func TestShortFooter(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t).settings

	footer, err := s.ShortFooter(ctx)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://cloud.example.com" target="_blank" rel="noreferrer">Cloud</a> – a safe home for all your data`, footer)

	require.NoError(t, s.Set(ctx, models.SettingSlogan, ""))
	footer, err = s.ShortFooter(ctx)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://cloud.example.com" target="_blank" rel="noreferrer">Cloud</a>`, footer)
}

func TestScssVariables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	vars, err := s.ScssVariables(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"theming-cachebuster":    `"0"`,
		"image-logo":             "'../../core/img/logo.svg'",
		"image-login-background": "'../../core/img/background.jpg'",
	}, vars)

	require.NoError(t, s.Set(ctx, models.SettingColor, "#ffffff"))
	vars, err = s.ScssVariables(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"1"`, vars["theming-cachebuster"])
	assert.Equal(t, "#ffffff", vars["color-primary"])
	assert.Equal(t, "#000000", vars["color-primary-text"])

	require.NoError(t, s.Set(ctx, models.SettingColor, "#000"))
	vars, _ = s.ScssVariables(ctx)
	assert.Equal(t, "#ffffff", vars["color-primary-text"])

	_, err = s.Revert(ctx, models.SettingColor)
	require.NoError(t, err)
	vars, _ = s.ScssVariables(ctx)
	assert.NotContains(t, vars, "color-primary")
	assert.Equal(t, `"3"`, vars["theming-cachebuster"])
}

func TestScssVariablesMemoized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.settings.ScssVariables(ctx)
	require.NoError(t, err)

	var cached map[string]string
	require.True(t, f.memo.Get(ctx, scssVariablesKey, &cached))
	assert.Equal(t, first, cached)

	// A write behind the store's back is not observed until invalidation.
	require.NoError(t, f.config.SetAppValue(ctx, models.ThemingAppID, models.SettingCacheBuster, "42"))
	again, _ := f.settings.ScssVariables(ctx)
	assert.Equal(t, `"0"`, again["theming-cachebuster"])

	f.memo.Invalidate(ctx, scssVariablesKey)
	again, _ = f.settings.ScssVariables(ctx)
	assert.Equal(t, `"42"`, again["theming-cachebuster"])
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settings

	require.NoError(t, s.Set(ctx, models.SettingColor, "#eeeeee"))
	require.NoError(t, s.Set(ctx, models.SettingLogoMime, "image/svg+xml"))
	require.NoError(t, f.blobs.Put(ctx, models.ImagesFolder, models.LogoBlob, []byte("<svg/>")))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cloud", snap.Name)
	assert.Equal(t, "#eeeeee", snap.Color)
	assert.True(t, snap.Inverted)
	assert.Equal(t, LogoRoute, snap.LogoURL)
	assert.Equal(t, DefaultBackgroundPath, snap.BackgroundURL)
	assert.Equal(t, int64(2), snap.CacheBuster)
	assert.Contains(t, snap.ShortFooter, ">Cloud</a>")
	assert.Equal(t, []string{models.SettingColor}, snap.Overridden)

	_, err = s.Revert(ctx, models.SettingColor)
	require.NoError(t, err)
	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Overridden)
}

type failingConfig struct{ err error }

func (f failingConfig) GetAppValue(context.Context, string, string) (string, bool, error) {
	return "", false, f.err
}
func (f failingConfig) SetAppValue(context.Context, string, string, string) error { return f.err }
func (f failingConfig) DeleteAppValue(context.Context, string, string) error      { return f.err }
func (f failingConfig) IncrementAppValue(context.Context, string, string) (int64, error) {
	return 0, f.err
}
func (f failingConfig) AppValues(context.Context, string) (models.AppSettings, error) {
	return nil, f.err
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	s := NewSettings(failingConfig{boom}, storage.NewMemory(), cache.NewMemoryMemo("theming"), testDefaults, nil)

	_, err := s.Get(ctx, models.SettingName)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Set(ctx, models.SettingName, "x"), boom)
	_, err = s.Revert(ctx, models.SettingName)
	assert.ErrorIs(t, err, boom)
	_, err = s.ScssVariables(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = s.Snapshot(ctx)
	assert.ErrorIs(t, err, boom)
}

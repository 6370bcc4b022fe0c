package scss

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudtheme/internal/storage"
	"cloudtheme/web"
)

func TestCompile(t *testing.T) {
	src := `// comment
$base: #111 !default;
$text: $base;
$img: 'a/b.png';
.x { color: $text; background: url($img); }
.y { content: "#{$img}"; }
`
	tests := []struct {
		name string
		vars map[string]string
		want []string
	}{
		{
			name: "defaults",
			want: []string{".x { color: #111; background: url('a/b.png'); }", `.y { content: "a/b.png"; }`},
		},
		{
			name: "override beats !default",
			vars: map[string]string{"base": "#abcdef"},
			want: []string{"color: #abcdef;"},
		},
		{
			name: "plain declaration beats override",
			vars: map[string]string{"img": "'c.png'"},
			want: []string{"url('a/b.png')"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(src, tt.vars)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			assert.NotContains(t, got, "$")
			assert.NotContains(t, got, "// comment")
		})
	}
}

func TestCompileUndefinedVariable(t *testing.T) {
	_, err := Compile("a {\n  color: $nope;\n}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "$nope")
}

func TestCompileThemingSource(t *testing.T) {
	css, err := Compile(web.ThemingSCSS, map[string]string{
		"theming-cachebuster":    `"4"`,
		"image-logo":             "'../../apps/theming/logo'",
		"image-login-background": "'../../apps/theming/loginbackground'",
		"color-primary":          "#ABC",
		"color-primary-text":     "#000000",
	})
	require.NoError(t, err)
	assert.Contains(t, css, "background-color: #ABC;")
	assert.Contains(t, css, "color: #000000;")
	assert.Contains(t, css, "url('../../apps/theming/logo')")
	assert.Contains(t, css, `--theming-cachebuster: "4";`)
	assert.NotContains(t, css, "$")
}

func TestCacherProcess(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	c := NewCacher(blobs, "a { color: $c; }", "css", "theming.css")

	_, err := c.Artifact(ctx, "1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, c.Process(ctx, "1", map[string]string{"c": "red"}))
	css, err := c.Artifact(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "a { color: red; }\n", string(css))

	// Same partition is not rebuilt even when variables change.
	require.NoError(t, c.Process(ctx, "1", map[string]string{"c": "blue"}))
	css, _ = c.Artifact(ctx, "1")
	assert.True(t, strings.Contains(string(css), "red"))

	require.NoError(t, c.Process(ctx, "2", map[string]string{"c": "blue"}))
	css, _ = c.Artifact(ctx, "2")
	assert.Contains(t, string(css), "blue")

	ok, _ := blobs.Exists(ctx, "css/2", "theming.css")
	assert.True(t, ok)
}

func TestCacherProcessCompileError(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	c := NewCacher(blobs, "a { color: $c; }", "css", "theming.css")

	require.Error(t, c.Process(ctx, "1", nil))
	ok, _ := blobs.Exists(ctx, "css/1", "theming.css")
	assert.False(t, ok)
}

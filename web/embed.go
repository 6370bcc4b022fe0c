// Package web provides embedded assets. The theming stylesheet source is
// compiled per cache-buster generation and served at /apps/theming/styles.
package web

import _ "embed"

// ThemingSCSS is the source of the theming stylesheet.
//
//go:embed scss/theming.scss
var ThemingSCSS string

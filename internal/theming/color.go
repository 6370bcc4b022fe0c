package theming

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	colorRe  = regexp.MustCompile(`(?i)^#([0-9a-f]{3}|[0-9a-f]{6})$`)
	nonHexRe = regexp.MustCompile(`[^0-9A-Fa-f]`)
)

// ValidColor reports whether s is a #RGB or #RRGGBB hex color.
func ValidColor(s string) bool {
	return colorRe.MatchString(s)
}

// Luminance returns the perceived brightness of a hex color in [0, 1]
// using ITU-R BT.601 weights. Shorthand colors are expanded; anything that
// is not three or six hex digits has luminance 0.
func Luminance(color string) float64 {
	hex := nonHexRe.ReplaceAllString(color, "")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0
	}
	rgb, err := strconv.ParseUint(strings.ToLower(hex), 16, 32)
	if err != nil {
		return 0
	}
	r := float64(rgb >> 16 & 0xff)
	g := float64(rgb >> 8 & 0xff)
	b := float64(rgb & 0xff)
	return (0.299*r + 0.587*g + 0.114*b) / 255
}

// InvertTextColor reports whether text on the given background should be
// dark rather than light.
func InvertTextColor(color string) bool {
	return Luminance(color) > 0.5
}

// TextColor returns the contrasting text color for a background.
func TextColor(color string) string {
	if InvertTextColor(color) {
		return "#000000"
	}
	return "#ffffff"
}

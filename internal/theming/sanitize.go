package theming

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes markup and comments from s, keeping text verbatim.
// Entities are not decoded.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// SanitizeHTML escapes s for safe inclusion in HTML text and attributes.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

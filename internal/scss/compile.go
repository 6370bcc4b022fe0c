// Package scss compiles the small SCSS subset used by the theming
// stylesheet and caches the compiled CSS in app-data storage, one artifact
// per cache partition.
//
// Supported: `$name: value;` declarations with `!default`, `$name`
// references, `#{$name}` interpolation (quotes removed) and `//` line
// comments. Nesting, mixins and functions are not supported.
package scss

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	declRe   = regexp.MustCompile(`^\s*\$([A-Za-z0-9_-]+)\s*:\s*(.*?)\s*(!default)?\s*;\s*$`)
	interpRe = regexp.MustCompile(`#\{\s*\$([A-Za-z0-9_-]+)\s*\}`)
	refRe    = regexp.MustCompile(`\$([A-Za-z0-9_-]+)`)
)

// Compile renders source to CSS. vars are defined before the source is
// evaluated, so they take precedence over !default declarations.
func Compile(source string, vars map[string]string) (string, error) {
	scope := make(map[string]string, len(vars))
	for k, v := range vars {
		scope[k] = v
	}

	var out strings.Builder
	for i, line := range strings.Split(source, "\n") {
		lineNo := i + 1
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}

		if m := declRe.FindStringSubmatch(line); m != nil {
			name, value, isDefault := m[1], m[2], m[3] != ""
			if _, defined := scope[name]; defined && isDefault {
				continue
			}
			resolved, err := substitute(value, scope, lineNo)
			if err != nil {
				return "", err
			}
			scope[name] = resolved
			continue
		}

		resolved, err := substitute(line, scope, lineNo)
		if err != nil {
			return "", err
		}
		out.WriteString(resolved)
		out.WriteByte('\n')
	}

	return strings.TrimLeft(out.String(), "\n"), nil
}

func substitute(s string, scope map[string]string, lineNo int) (string, error) {
	var missing string
	lookup := func(name string) string {
		v, ok := scope[name]
		if !ok && missing == "" {
			missing = name
		}
		return v
	}

	s = interpRe.ReplaceAllStringFunc(s, func(m string) string {
		return unquote(lookup(interpRe.FindStringSubmatch(m)[1]))
	})
	s = refRe.ReplaceAllStringFunc(s, func(m string) string {
		return lookup(m[1:])
	})

	if missing != "" {
		return "", fmt.Errorf("scss: line %d: undefined variable $%s", lineNo, missing)
	}
	return s, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

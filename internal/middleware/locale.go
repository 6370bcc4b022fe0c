package middleware

import (
	"net/http"

	"cloudtheme/internal/i18n"
)

// Locale negotiates the response language from Accept-Language and stores
// it in the request context for i18n.LanguageFromContext.
func Locale(tr *i18n.Translator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := tr.Negotiate(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), tag)))
		})
	}
}

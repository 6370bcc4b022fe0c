// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RequireAdmin guards the settings endpoints with a bearer token checked
// against a bcrypt hash. An empty hash disables the check, which config
// only permits outside production.
func RequireAdmin(tokenHash string) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hash) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="theming"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				slog.Warn("admin token rejected",
					"request_id", RequestIDFromCtx(r.Context()),
					"remote", clientIP(r),
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

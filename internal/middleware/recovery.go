// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// panicBody mirrors the JSON error envelope of the theming endpoints.
const panicBody = `{"data":{"message":"Internal Server Error"},"status":"error"}`

// Recoverer catches panics in downstream handlers, logs the stack trace
// with the request ID and answers with a JSON 500 instead of crashing the server.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"error", rec,
				"request_id", RequestIDFromCtx(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(panicBody))
		}()

		next.ServeHTTP(w, r)
	})
}

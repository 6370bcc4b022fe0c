// Package router sets up the HTTP routes and middleware chains for the
// theming service. Branded assets are public; settings changes go through
// the admin group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudtheme/internal/handlers"
	"cloudtheme/internal/i18n"
	"cloudtheme/internal/middleware"
)

// New creates the chi router with every middleware and route group wired
// up. limiter may be nil to disable rate limiting of the admin endpoints.
func New(theming *handlers.Theming, tr *i18n.Translator, adminTokenHash string, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Locale(tr))

	r.Get("/health", healthHandler)

	r.Route("/apps/theming", func(r chi.Router) {
		// Public branded assets.
		r.Get("/logo", theming.Logo)
		r.Get("/loginbackground", theming.LoginBackground)
		r.Get("/styles", theming.Stylesheet)
		r.Get("/js/theming", theming.Script)

		// Admin settings API.
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Use(middleware.RequireAdmin(adminTokenHash))

			r.Get("/settings", theming.Settings)
			r.Get("/history", theming.History)
			r.Post("/ajax/updateStylesheet", theming.UpdateStylesheet)
			r.Post("/ajax/updateLogo", theming.UpdateLogo)
			r.Post("/ajax/undoChanges", theming.UndoChanges)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

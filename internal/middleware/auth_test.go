// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name       string
		hash       string
		authHeader string
		wantStatus int
		wantCalled bool
	}{
		{"valid token", string(hash), "Bearer s3cret", http.StatusOK, true},
		{"scheme is case-insensitive", string(hash), "bearer s3cret", http.StatusOK, true},
		{"wrong token", string(hash), "Bearer nope", http.StatusForbidden, false},
		{"missing header", string(hash), "", http.StatusUnauthorized, false},
		{"basic scheme", string(hash), "Basic czNjcmV0", http.StatusUnauthorized, false},
		{"empty bearer", string(hash), "Bearer ", http.StatusUnauthorized, false},
		{"no hash configured", "", "", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := RequireAdmin(tt.hash)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/apps/theming/ajax/updateStylesheet", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("next called: got %v, want %v", called, tt.wantCalled)
			}
			if tt.wantStatus == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 must carry a WWW-Authenticate challenge")
			}
		})
	}
}

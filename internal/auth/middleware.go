// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package auth

import (
	"net/http"
	"strings"
)

const operatorRole = "operator"

// Middleware authenticates admin requests against a bearer JWT.
type Middleware struct {
	manager *Manager
}

// NewMiddleware wraps manager for use as chi middleware.
func NewMiddleware(manager *Manager) *Middleware {
	return &Middleware{manager: manager}
}

// Authenticate extracts and validates the Authorization: Bearer <token>
// header, attaching a Principal to the request context on success. It
// rejects missing or invalid tokens with 401 before authz is ever consulted.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := bearerToken(header)
		if !ok {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := m.manager.ValidateToken(token)
		if err != nil {
			http.Error(w, "unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		principal := Principal{Username: claims.Username, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package authz

import (
	"net/http"

	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/logging"
)

// Middleware authorizes requests against an Enforcer using the request
// path as the casbin object and the HTTP method as the action.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware wraps enforcer for use as chi middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// RequireOperator rejects any request whose JWT principal lacks the
// "operator" role, per SPEC_FULL.md §4.10/§8: no valid JWT or no operator
// role means no state change and no audit entry.
func (m *Middleware) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "forbidden: no authentication context", http.StatusForbidden)
			return
		}

		allowed, err := m.enforcer.Enforce([]string{principal.Role}, r.URL.Path, r.Method)
		if err != nil {
			logging.Error().Err(err).Msg("authz: enforcement error")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

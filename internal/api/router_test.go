// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/authz"
)

const testCasbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

const testCasbinPolicy = `
p, operator, /api/v1/admin/*, POST
g, operator, operator
`

func newTestRouter(t *testing.T) (http.Handler, *auth.Manager) {
	t.Helper()

	h, manager := newTestHandler(t)

	authMW := auth.NewMiddleware(manager)
	enforcer, err := authz.NewEnforcer(testCasbinModel, testCasbinPolicy)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	authzMW := authz.NewMiddleware(enforcer)

	apiRouter := NewRouter(h, authMW, authzMW, RouterConfig{RateLimitRequests: 100, RateLimitWindow: time.Minute})

	top := chi.NewRouter()
	top.Mount("/api/v1", apiRouter)
	return top, manager
}

func TestRouterServesHealthzWithoutAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouterRejectsAdminMutationWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(passiveRequest{Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/passive", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRouterAllowsAdminMutationWithOperatorToken(t *testing.T) {
	router, manager := newTestRouter(t)

	token, err := manager.IssueToken("operator1", "operator")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	body, _ := json.Marshal(passiveRequest{Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/passive", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouterRejectsAdminMutationWithNonOperatorRole(t *testing.T) {
	router, manager := newTestRouter(t)

	token, err := manager.IssueToken("someone", "viewer")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	body, _ := json.Marshal(passiveRequest{Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/passive", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

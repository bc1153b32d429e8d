// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/resolver"
)

func TestLoginAcceptsCorrectCredentials(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(loginRequest{Username: "operator1", Password: "s3cret-operator-pass"})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(loginRequest{Username: "operator1", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSetPassiveTogglesResolverAndAudits(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(passiveRequest{Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/admin/passive", bytes.NewReader(body))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "operator1", Role: "operator"}))
	rec := httptest.NewRecorder()
	h.SetPassive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	track := model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: 1}
	_, err := h.resolver.Resolve(context.Background(), model.DeckRef{Player: 1}, model.AssetMetadata, track, model.MediaDetails{}, model.TagKey{}, false)
	if !errors.Is(err, resolver.ErrPassiveSuppressed) {
		t.Fatalf("expected resolver to be passive after SetPassive, got err %v", err)
	}
}

func TestSetLRUCapacityRejectsZero(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(lruCapacityRequest{Capacity: 0})
	req := httptest.NewRequest(http.MethodPost, "/admin/lru-capacity", bytes.NewReader(body))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "operator1", Role: "operator"}))
	rec := httptest.NewRecorder()
	h.SetLRUCapacity(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSetLRUCapacityAcceptsPositiveValue(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(lruCapacityRequest{Capacity: 8})
	req := httptest.NewRequest(http.MethodPost, "/admin/lru-capacity", bytes.NewReader(body))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "operator1", Role: "operator"}))
	rec := httptest.NewRecorder()
	h.SetLRUCapacity(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestEvictSlotRejectsMalformedParam(t *testing.T) {
	h, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Post("/admin/slots/{slot}/evict", h.EvictSlot)

	req := httptest.NewRequest(http.MethodPost, "/admin/slots/garbage/evict", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "operator1", Role: "operator"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEvictSlotAcceptsWellFormedParam(t *testing.T) {
	h, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Post("/admin/slots/{slot}/evict", h.EvictSlot)

	req := httptest.NewRequest(http.MethodPost, "/admin/slots/2:USB/evict", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "operator1", Role: "operator"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/model"
)

func TestListDecksReturnsCachedEntries(t *testing.T) {
	h, _ := newTestHandler(t)
	h.hot.Set(model.DeckRef{Player: 2}, model.AssetMetadata, model.DataRef{}, "fake-metadata")

	req := httptest.NewRequest(http.MethodGet, "/decks", nil)
	rec := httptest.NewRecorder()
	h.ListDecks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGetDeckReturnsEntryWhenPresent(t *testing.T) {
	h, _ := newTestHandler(t)
	h.hot.Set(model.DeckRef{Player: 2}, model.AssetMetadata, model.DataRef{}, "fake-metadata")

	r := chi.NewRouter()
	r.Get("/decks/{player}/{hotCue}", h.GetDeck)

	req := httptest.NewRequest(http.MethodGet, "/decks/2/0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGetDeckReturns404WhenAbsent(t *testing.T) {
	h, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Get("/decks/{player}/{hotCue}", h.GetDeck)

	req := httptest.NewRequest(http.MethodGet, "/decks/9/0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetDeckRejectsNonIntegerPlayer(t *testing.T) {
	h, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Get("/decks/{player}/{hotCue}", h.GetDeck)

	req := httptest.NewRequest(http.MethodGet, "/decks/notanumber/0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

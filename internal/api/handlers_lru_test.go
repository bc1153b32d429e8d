// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepspin/trackcore/internal/model"
)

func TestGetLRUStatsReportsOccupancy(t *testing.T) {
	h, _ := newTestHandler(t)
	h.art.Insert(model.DataRef{RekordboxID: 1}, model.AlbumArt{})

	req := httptest.NewRequest(http.MethodGet, "/lru/stats", nil)
	rec := httptest.NewRecorder()
	h.GetLRUStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import "net/http"

// lruStats mirrors cache.Stats with an explicit hit-rate field for clients
// that would rather not recompute it.
type lruStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_pct"`
}

// GetLRUStats returns the album-art LRU's occupancy and hit-rate snapshot.
//
// @Summary Album art LRU cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} Envelope
// @Router /lru/stats [get]
func (h *Handler) GetLRUStats(w http.ResponseWriter, r *http.Request) {
	stats := h.art.Stats()
	newResponder(w, r).ok(lruStats{
		Size:     stats.Size,
		Capacity: stats.Capacity,
		Hits:     stats.Hits,
		Misses:   stats.Misses,
		HitRate:  stats.HitRate(),
	})
}

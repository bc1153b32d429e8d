// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type playerPosition struct {
	Player       int     `json:"player"`
	PositionMs   int64   `json:"position_ms"`
	StateAgeSecs float64 `json:"state_age_seconds"`
}

// GetPosition returns the extrapolated playback position for one player,
// computed from its most recent CDJ status/beat packets.
//
// @Summary Latest extrapolated position for a player
// @Tags Position
// @Produce json
// @Param player path int true "Player number"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /position/{player} [get]
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	player, err := strconv.Atoi(chi.URLParam(r, "player"))
	if err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "player must be an integer")
		return
	}

	now := time.Now()
	positionMs, ok := h.extrapolator.PositionAt(player, now)
	if !ok {
		rp.fail(http.StatusNotFound, ErrCodeNotFound, "no known position for that player")
		return
	}

	age, _ := h.extrapolator.StateAge(player, now)
	rp.ok(playerPosition{Player: player, PositionMs: positionMs, StateAgeSecs: age.Seconds()})
}

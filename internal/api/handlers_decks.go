// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/model"
)

// deckAssets renders one deck's cached assets, keyed by asset kind name.
type deckAssets struct {
	Player int            `json:"player"`
	HotCue int            `json:"hot_cue"`
	Assets map[string]any `json:"assets"`
}

// ListDecks returns an immutable snapshot of every active deck currently
// held in the hot cache.
//
// @Summary Snapshot the hot cache's active decks
// @Tags Decks
// @Produce json
// @Success 200 {object} Envelope
// @Router /decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	snapshot := h.hot.Snapshot()

	decks := make([]deckAssets, 0, len(snapshot))
	for deck, assets := range snapshot {
		if !deck.IsActiveDeck() {
			continue
		}
		rendered := make(map[string]any, len(assets))
		for kind, asset := range assets {
			rendered[kind.String()] = asset
		}
		decks = append(decks, deckAssets{Player: deck.Player, HotCue: deck.HotCue, Assets: rendered})
	}

	newResponder(w, r).ok(decks)
}

// GetDeck returns a single hot-cache entry for one player/hot-cue pair.
//
// @Summary Look up a single deck's cached assets
// @Tags Decks
// @Produce json
// @Param player path int true "Player number"
// @Param hotCue path int true "Hot cue index, 0 for the active deck"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /decks/{player}/{hotCue} [get]
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	player, err := strconv.Atoi(chi.URLParam(r, "player"))
	if err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "player must be an integer")
		return
	}
	hotCue, err := strconv.Atoi(chi.URLParam(r, "hotCue"))
	if err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "hotCue must be an integer")
		return
	}

	deck := model.DeckRef{Player: player, HotCue: hotCue}
	snapshot := h.hot.Snapshot()
	assets, ok := snapshot[deck]
	if !ok {
		rp.fail(http.StatusNotFound, ErrCodeNotFound, "no cached assets for that deck")
		return
	}

	rendered := make(map[string]any, len(assets))
	for kind, asset := range assets {
		rendered[kind.String()] = asset
	}
	rp.ok(deckAssets{Player: player, HotCue: hotCue, Assets: rendered})
}

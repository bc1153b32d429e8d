// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the configured operator credential for a bearer JWT.
//
// @Summary Authenticate as the configured operator
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body loginRequest true "Operator credential"
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /admin/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}

	token, err := h.authn.Login(req.Username, req.Password)
	if err != nil {
		rp.fail(http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	rp.ok(loginResponse{Token: token})
}

type passiveRequest struct {
	Enabled bool `json:"enabled"`
}

// SetPassive toggles passive mode on the resolver: while enabled, no live
// dbserver request is made for a non-collection slot.
//
// @Summary Toggle passive mode
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body passiveRequest true "Desired passive-mode state"
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Router /admin/passive [post]
func (h *Handler) SetPassive(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	var req passiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}

	h.resolver.SetPassive(req.Enabled)
	h.logAdminAction(r, "set_passive", map[string]any{"enabled": req.Enabled})
	rp.ok(map[string]bool{"passive": req.Enabled})
}

type lruCapacityRequest struct {
	Capacity int `json:"capacity"`
}

// SetLRUCapacity resizes the album-art LRU cache.
//
// @Summary Resize the album art LRU cache
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body lruCapacityRequest true "Desired capacity"
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Router /admin/lru-capacity [post]
func (h *Handler) SetLRUCapacity(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	var req lruCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}

	if err := h.art.Resize(req.Capacity); err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	h.logAdminAction(r, "set_lru_capacity", map[string]any{"capacity": req.Capacity})
	rp.ok(map[string]int{"capacity": req.Capacity})
}

// EvictSlot force-evicts a slot's cached assets and scratch files, the
// same cleanup a real unmount performs. The {slot} path segment encodes
// "player:slotType", e.g. "2:USB".
//
// @Summary Force-evict a slot
// @Tags Admin
// @Produce json
// @Param slot path string true "player:slotType, e.g. 2:USB"
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Router /admin/slots/{slot}/evict [post]
func (h *Handler) EvictSlot(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	slotRef, err := parseSlotParam(chi.URLParam(r, "slot"))
	if err != nil {
		rp.fail(http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	h.acquirer.Unmount(slotRef)
	h.hot.EvictSlot(slotRef)
	h.art.EvictSlot(slotRef)

	h.logAdminAction(r, "evict_slot", map[string]any{"player": slotRef.Player, "slot": slotRef.Slot.String()})
	rp.ok(map[string]string{"evicted": slotRef.String()})
}

func parseSlotParam(raw string) (model.SlotRef, error) {
	playerStr, slotStr, found := strings.Cut(raw, ":")
	if !found {
		return model.SlotRef{}, errInvalidSlotParam
	}
	player, err := strconv.Atoi(playerStr)
	if err != nil {
		return model.SlotRef{}, errInvalidSlotParam
	}
	slotType, err := model.ParseSlotType(slotStr)
	if err != nil {
		return model.SlotRef{}, err
	}
	return model.SlotRef{Player: player, Slot: slotType}, nil
}

var errInvalidSlotParam = fmt.Errorf("slot must be formatted as player:slotType, e.g. 2:USB")

// logAdminAction appends an audit entry for a successful admin mutation,
// attributing it to the authenticated principal.
func (h *Handler) logAdminAction(r *http.Request, action string, params map[string]any) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	username := "unknown"
	if ok {
		username = principal.Username
	}
	h.audit.Log(username, action, params)
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import "net/http"

// HealthLive reports liveness: the process is up and handling requests.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} Envelope
// @Router /healthz [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	newResponder(w, r).ok(map[string]string{"status": "live"})
}

// HealthReady reports readiness: a supervisor tree is configured and has a
// root supervisor. It does not inspect the state of the tree's services.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} Envelope
// @Failure 503 {object} Envelope
// @Router /readyz [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rp := newResponder(w, r)

	if h.tree == nil || h.tree.Root() == nil {
		rp.fail(http.StatusServiceUnavailable, ErrCodeUnavailable, "supervisor tree is not running")
		return
	}
	rp.ok(map[string]string{"status": "ready"})
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package api exposes the control/status HTTP surface over the running
// coordination core: read-only deck/cache/position snapshots plus a small,
// JWT-gated set of admin mutations.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/deepspin/trackcore/internal/logging"
)

// Envelope is the standard response wrapper for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta carries response bookkeeping.
type Meta struct {
	RequestID  string `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// Error codes used across handlers.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// responder writes standardized JSON responses for a single request.
type responder struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func newResponder(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, start: time.Now()}
}

func (rp *responder) ok(data any) {
	rp.writeJSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: rp.meta()})
}

func (rp *responder) fail(status int, code, message string) {
	rp.writeJSON(status, Envelope{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(rp.r.Context()),
		},
		Meta: rp.meta(),
	})
}

func (rp *responder) meta() *Meta {
	return &Meta{
		RequestID:  logging.RequestIDFromContext(rp.r.Context()),
		Timestamp:  time.Now(),
		DurationMs: time.Since(rp.start).Milliseconds(),
	}
}

func (rp *responder) writeJSON(status int, body Envelope) {
	rp.w.Header().Set("Content-Type", "application/json")
	rp.w.WriteHeader(status)
	if err := json.NewEncoder(rp.w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("api: failed to encode response")
	}
}

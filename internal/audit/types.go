// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package audit records every admin mutation accepted by the control API:
// who did it, what action, with what parameters, and when.
package audit

import "time"

// Entry is one recorded admin mutation, matching SPEC_FULL.md §4.10's
// {time, principal, action, params} shape exactly.
type Entry struct {
	Time      time.Time      `json:"time"`
	Principal string         `json:"principal"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
}

// Store persists audit entries. MemoryStore is the only implementation
// this module ships; a deployment wanting durable audit history swaps in
// its own Store against a real sink.
type Store interface {
	Save(e Entry)
	Recent(limit int) []Entry
}

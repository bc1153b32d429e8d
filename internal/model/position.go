// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import "math"

// TrackPositionUpdate is a point-in-time estimate of where a player's
// active track is playing, as produced by the position extrapolator.
//
// TimestampNs is an arbitrary monotonic nanosecond timestamp (never wall
// clock); only differences between two updates' timestamps are meaningful.
type TrackPositionUpdate struct {
	TimestampNs int64
	PositionMs  int64
	BeatNumber  int
	// Definitive is true only immediately after a beat packet anchored this
	// update; status-packet-derived updates are never definitive.
	Definitive bool
	Playing    bool
	Pitch      float64
	Reverse    bool
	BeatGrid   *BeatGrid
}

// Interpolate projects this update forward to tsNs, per the extrapolator's
// fixed formula: elapsed nanoseconds are converted to milliseconds, scaled
// by pitch, and added to (or subtracted from, if reversed) the stored
// position. It never clamps to track duration and runs indefinitely; a
// caller that needs clamping must do it itself.
func (u TrackPositionUpdate) Interpolate(tsNs int64) int64 {
	elapsedMs := (tsNs - u.TimestampNs) / 1_000_000
	moved := int64(math.Round(u.Pitch * float64(elapsedMs)))
	if !u.Playing {
		return u.PositionMs
	}
	if u.Reverse {
		return u.PositionMs - moved
	}
	return u.PositionMs + moved
}

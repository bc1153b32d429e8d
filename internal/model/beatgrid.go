// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import (
	"encoding/binary"
	"fmt"
)

// BeatGrid is the immutable beat-to-time mapping for a track. Beat numbers
// are 1-based; BeatGrid.TimeForBeat(1) is the first beat.
type BeatGrid struct {
	// timesMs[i] is the time in milliseconds of beat i+1.
	timesMs []int64
}

// NewBeatGrid builds a BeatGrid from a monotonically increasing sequence of
// beat times in milliseconds (beat 1 first).
func NewBeatGrid(beatTimesMs []int64) *BeatGrid {
	times := make([]int64, len(beatTimesMs))
	copy(times, beatTimesMs)
	return &BeatGrid{timesMs: times}
}

// BeatCount returns the number of beats in the grid.
func (b *BeatGrid) BeatCount() int {
	if b == nil {
		return 0
	}
	return len(b.timesMs)
}

// TimeForBeat returns the time in milliseconds of the given 1-based beat.
func (b *BeatGrid) TimeForBeat(beat int) (int64, error) {
	if b == nil || beat < 1 || beat > len(b.timesMs) {
		return 0, fmt.Errorf("model: beat %d out of range (grid has %d beats)", beat, b.BeatCount())
	}
	return b.timesMs[beat-1], nil
}

// DecodeBeatGrid parses a beat grid section's raw body: a sequence of
// big-endian uint32 beat times in milliseconds, beat 1 first, with no
// header. Both the live dbserver fetch and the analysis-file provider
// share this decoder since the on-disk "PQTZ" section and the live
// BEAT_GRID response carry the same per-beat time encoding.
func DecodeBeatGrid(data []byte) (*BeatGrid, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("model: beat grid payload length %d is not a multiple of 4", len(data))
	}
	times := make([]int64, len(data)/4)
	for i := range times {
		times[i] = int64(binary.BigEndian.Uint32(data[i*4 : i*4+4]))
	}
	return NewBeatGrid(times), nil
}

// Same reports whether two beat grids are the same grid. The resolver and
// extrapolator only need pointer identity: a newly-resolved grid for the
// same track is always a distinct value even if equal in content, and a
// change of grid must resync the extrapolator per the position spec.
func (b *BeatGrid) Same(other *BeatGrid) bool {
	return b == other
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package position implements the track-position extrapolator: per-player
// sliding state fused from status and beat packets, answering "where is
// this player now?" under variable pitch and playback direction without
// blocking on a lock per query.
package position

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deepspin/trackcore/internal/metrics"
	"github.com/deepspin/trackcore/internal/model"
)

// maxBeatPacketPlayer is the protocol boundary noted in the spec: beat
// packets are only meaningful from players addressed below this number.
const maxBeatPacketPlayer = 16

// playerSlot holds one player's current position state behind an atomic
// pointer so readers never block on a writer and writers retry via
// compare-and-swap rather than taking a lock.
type playerSlot struct {
	state atomic.Pointer[model.TrackPositionUpdate]
}

// Extrapolator tracks position state for every player currently reporting.
type Extrapolator struct {
	mu    sync.RWMutex
	slots map[int]*playerSlot
}

// New constructs an empty Extrapolator.
func New() *Extrapolator {
	return &Extrapolator{slots: make(map[int]*playerSlot)}
}

func (e *Extrapolator) slotFor(player int) *playerSlot {
	e.mu.RLock()
	s, ok := e.slots[player]
	e.mu.RUnlock()
	if ok {
		return s
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.slots[player]; ok {
		return s
	}
	s = &playerSlot{}
	e.slots[player] = s
	return s
}

// OnStatus applies a status-packet update for player, per §4.7's status
// rule: if there is no prior state or the beat grid changed, take the
// position directly from the beat grid (non-definitive); otherwise
// interpolate the prior state forward and carry the new beat number.
func (e *Extrapolator) OnStatus(player int, tsNs int64, beatNumber int, pitch float64, playing, reverse bool, grid *model.BeatGrid) {
	if grid == nil || beatNumber <= 0 {
		return
	}
	slot := e.slotFor(player)
	for {
		prev := slot.state.Load()
		if prev != nil && prev.TimestampNs >= tsNs {
			return // a fresher state already installed; abandon
		}

		var next model.TrackPositionUpdate
		if prev == nil || !prev.BeatGrid.Same(grid) {
			pos, err := grid.TimeForBeat(beatNumber)
			if err != nil {
				return
			}
			next = model.TrackPositionUpdate{
				TimestampNs: tsNs,
				PositionMs:  pos,
				BeatNumber:  beatNumber,
				Definitive:  false,
				Playing:     playing,
				Pitch:       pitch,
				Reverse:     reverse,
				BeatGrid:    grid,
			}
		} else {
			next = model.TrackPositionUpdate{
				TimestampNs: tsNs,
				PositionMs:  prev.Interpolate(tsNs),
				BeatNumber:  beatNumber,
				Definitive:  false,
				Playing:     playing,
				Pitch:       pitch,
				Reverse:     reverse,
				BeatGrid:    grid,
			}
		}

		if slot.state.CompareAndSwap(prev, &next) {
			return
		}
	}
}

// OnBeat applies a beat-packet update for player, an authoritative anchor
// asserting forward playback exactly on a grid beat. Per §4.7, beat packets
// are only meaningful below player 16.
func (e *Extrapolator) OnBeat(player int, tsNs int64, grid *model.BeatGrid) {
	if player >= maxBeatPacketPlayer || grid == nil {
		return
	}
	slot := e.slotFor(player)
	for {
		prev := slot.state.Load()
		if prev != nil && prev.TimestampNs >= tsNs {
			return
		}

		var beatNumber int
		var definitive bool
		if prev == nil || !prev.BeatGrid.Same(grid) {
			beatNumber = 1
			definitive = false
		} else {
			beatNumber = prev.BeatNumber + 1
			definitive = true
		}

		pos, err := grid.TimeForBeat(beatNumber)
		if err != nil {
			return
		}
		next := model.TrackPositionUpdate{
			TimestampNs: tsNs,
			PositionMs:  pos,
			BeatNumber:  beatNumber,
			Definitive:  definitive,
			Playing:     true,
			Reverse:     false,
			Pitch:       pitch(prev),
			BeatGrid:    grid,
		}
		if slot.state.CompareAndSwap(prev, &next) {
			return
		}
	}
}

func pitch(prev *model.TrackPositionUpdate) float64 {
	if prev == nil {
		return 1.0
	}
	return prev.Pitch
}

// PositionAt returns the extrapolated position, in milliseconds, for
// player at the given wall-clock time. ok is false if no state exists yet.
func (e *Extrapolator) PositionAt(player int, now time.Time) (int64, bool) {
	e.mu.RLock()
	s, ok := e.slots[player]
	e.mu.RUnlock()
	if !ok {
		return 0, false
	}
	state := s.state.Load()
	if state == nil {
		return 0, false
	}
	return state.Interpolate(now.UnixNano()), true
}

// StateAge reports how long it has been since player's state was last
// refreshed by a beat or status packet, for the extrapolator_state_age_seconds
// metric.
func (e *Extrapolator) StateAge(player int, now time.Time) (time.Duration, bool) {
	e.mu.RLock()
	s, ok := e.slots[player]
	e.mu.RUnlock()
	if !ok {
		return 0, false
	}
	state := s.state.Load()
	if state == nil {
		return 0, false
	}
	age := now.UnixNano() - state.TimestampNs
	return time.Duration(age), true
}

// ReportMetrics pushes every tracked player's state age into the
// extrapolator_state_age_seconds gauge; intended to be called periodically.
func (e *Extrapolator) ReportMetrics(now time.Time) {
	e.mu.RLock()
	players := make([]int, 0, len(e.slots))
	for p := range e.slots {
		players = append(players, p)
	}
	e.mu.RUnlock()

	for _, p := range players {
		if age, ok := e.StateAge(p, now); ok {
			metrics.ExtrapolatorStateAge.WithLabelValues(strconv.Itoa(p)).Set(math.Max(age.Seconds(), 0))
		}
	}
}

// DeviceLost evicts player's state entirely.
func (e *Extrapolator) DeviceLost(player int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.slots, player)
}

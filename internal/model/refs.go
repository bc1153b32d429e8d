// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import "fmt"

// DeckRef addresses a playback position on a player: the active deck when
// HotCue is zero, or a specific preloaded hot cue slot otherwise.
type DeckRef struct {
	Player int
	HotCue int
}

// IsActiveDeck reports whether this ref names the player's main playback
// position rather than a preloaded hot cue.
func (d DeckRef) IsActiveDeck() bool {
	return d.HotCue == 0
}

func (d DeckRef) String() string {
	if d.IsActiveDeck() {
		return fmt.Sprintf("player %d (deck)", d.Player)
	}
	return fmt.Sprintf("player %d (hot cue %d)", d.Player, d.HotCue)
}

// DataRef identifies a track or asset inside a specific media database.
type DataRef struct {
	Slot        SlotRef
	RekordboxID int
}

func (d DataRef) String() string {
	return fmt.Sprintf("%s/id-%d", d.Slot, d.RekordboxID)
}

// MediaDetails describes the physical media mounted in a slot well enough
// to key a stable set of providers against it; the coordination core never
// interprets the descriptor bytes itself.
type MediaDetails struct {
	Slot       SlotRef
	HashKey    string
	Descriptor []byte
}

// Key returns the hash key providers are registered under. An empty key
// never matches a real MediaDetails; it is reserved for universal providers.
func (m MediaDetails) Key() string {
	return m.HashKey
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

// TrackUpdate is the event an asset finder's dispatcher worker consumes: a
// notification that a deck's loaded track changed (or cleared). Metadata is
// nil when the deck reports no track loaded, which every finder treats as
// "evict and notify null" regardless of asset kind.
type TrackUpdate struct {
	Player    int
	HotCue    int
	Track     DataRef
	TrackType TrackType
	Media     MediaDetails
	Metadata  *TrackMetadata
}

// Deck returns the DeckRef this update addresses.
func (u TrackUpdate) Deck() DeckRef {
	return DeckRef{Player: u.Player, HotCue: u.HotCue}
}

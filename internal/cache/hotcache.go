// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package cache

import (
	"sync"

	"github.com/deepspin/trackcore/internal/model"
)

type hotEntry struct {
	asset any
	slot  model.SlotRef
	track model.DataRef
}

// HotCache maps (DeckRef, AssetKind) to a resolved asset, plus a nested
// (DeckRef) -> (TagKey -> TaggedSection) map for the analysis-tag finder.
// Writes take no exclusive lock beyond the map's own mutex, so a reader
// either sees a consistent asset or sees nothing — never a half-written
// value, satisfying the concurrent-read requirement in the spec.
type HotCache struct {
	mu     sync.RWMutex
	assets map[model.DeckRef]map[model.AssetKind]hotEntry
	tags   map[model.DeckRef]map[model.TagKey]taggedEntry
}

type taggedEntry struct {
	section model.TaggedSection
	slot    model.SlotRef
	track   model.DataRef
}

// NewHotCache constructs an empty hot cache.
func NewHotCache() *HotCache {
	return &HotCache{
		assets: make(map[model.DeckRef]map[model.AssetKind]hotEntry),
		tags:   make(map[model.DeckRef]map[model.TagKey]taggedEntry),
	}
}

// Set writes asset for deck/kind, recording the owning slot and track so a
// later EvictSlot/EvictPlayer can find it again.
func (h *HotCache) Set(deck model.DeckRef, kind model.AssetKind, track model.DataRef, asset any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.assets[deck]
	if !ok {
		m = make(map[model.AssetKind]hotEntry)
		h.assets[deck] = m
	}
	m[kind] = hotEntry{asset: asset, slot: track.Slot, track: track}
}

// Get returns the asset cached for deck/kind, if any.
func (h *HotCache) Get(deck model.DeckRef, kind model.AssetKind) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.assets[deck]
	if !ok {
		return nil, false
	}
	e, ok := m[kind]
	if !ok {
		return nil, false
	}
	return e.asset, true
}

// FindByTrack scans every deck's entry for a given asset kind and returns
// the first whose track matches, implementing the "hot-cue reuse" path: a
// track already resolved for one deck fills another deck instantly.
func (h *HotCache) FindByTrack(kind model.AssetKind, track model.DataRef) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.assets {
		if e, ok := m[kind]; ok && e.track == track {
			return e.asset, true
		}
	}
	return nil, false
}

// EvictDeck removes every asset kind cached for deck and reports whether an
// active-deck (hotCue==0) entry existed, which callers use to decide
// whether a listener notification is owed.
func (h *HotCache) EvictDeck(deck model.DeckRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, existed := h.assets[deck]
	delete(h.assets, deck)
	delete(h.tags, deck)
	return existed && len(m) > 0 && deck.IsActiveDeck()
}

// EvictSlot removes every asset whose owning slot matches, returning the
// active decks (hotCue==0) that lost an entry so the caller can notify.
func (h *HotCache) EvictSlot(slot model.SlotRef) []model.DeckRef {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.evictMatchingLocked(func(s model.SlotRef) bool { return s == slot })
}

// EvictPlayer removes every asset belonging to a player, used on device loss.
func (h *HotCache) EvictPlayer(player int) []model.DeckRef {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.evictMatchingLocked(func(s model.SlotRef) bool { return s.Player == player })
}

func (h *HotCache) evictMatchingLocked(match func(model.SlotRef) bool) []model.DeckRef {
	var affected []model.DeckRef
	for deck, m := range h.assets {
		hadActive := false
		for kind, e := range m {
			if match(e.slot) {
				delete(m, kind)
				if deck.IsActiveDeck() {
					hadActive = true
				}
			}
		}
		if len(m) == 0 {
			delete(h.assets, deck)
		}
		if hadActive {
			affected = append(affected, deck)
		}
	}
	for deck, m := range h.tags {
		for key, e := range m {
			if match(e.slot) {
				delete(m, key)
			}
		}
		if len(m) == 0 {
			delete(h.tags, deck)
		}
	}
	return affected
}

// SetTag writes a resolved analysis-tag section for deck/key.
func (h *HotCache) SetTag(deck model.DeckRef, key model.TagKey, track model.DataRef, section model.TaggedSection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.tags[deck]
	if !ok {
		m = make(map[model.TagKey]taggedEntry)
		h.tags[deck] = m
	}
	m[key] = taggedEntry{section: section, slot: track.Slot, track: track}
}

// GetTag returns the resolved section for deck/key, if any.
func (h *HotCache) GetTag(deck model.DeckRef, key model.TagKey) (model.TaggedSection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.tags[deck]
	if !ok {
		return model.TaggedSection{}, false
	}
	e, ok := m[key]
	return e.section, ok
}

// FindTagByTrack is the hot-cue-reuse lookup for analysis tags.
func (h *HotCache) FindTagByTrack(key model.TagKey, track model.DataRef) (model.TaggedSection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.tags {
		if e, ok := m[key]; ok && e.track == track {
			return e.section, true
		}
	}
	return model.TaggedSection{}, false
}

// Snapshot returns an immutable copy of every cached asset, suitable for
// the control API's read-only endpoints.
func (h *HotCache) Snapshot() map[model.DeckRef]map[model.AssetKind]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[model.DeckRef]map[model.AssetKind]any, len(h.assets))
	for deck, m := range h.assets {
		cp := make(map[model.AssetKind]any, len(m))
		for kind, e := range m {
			cp[kind] = e.asset
		}
		out[deck] = cp
	}
	return out
}

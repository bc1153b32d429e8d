// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package cache

import (
	"testing"

	"github.com/deepspin/trackcore/internal/model"
)

func ref(id int) model.DataRef {
	return model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: id}
}

func TestArtLRURejectsNonPositiveCapacity(t *testing.T) {
	if _, err := NewArtLRU(0); err == nil {
		t.Fatal("expected error for capacity 0")
	}
	if _, err := NewArtLRU(-3); err == nil {
		t.Fatal("expected error for negative capacity")
	}
}

func TestArtLRUCapacityOneSecondChance(t *testing.T) {
	c, err := NewArtLRU(1)
	if err != nil {
		t.Fatal(err)
	}
	c.Insert(ref(1), model.AlbumArt{Ref: ref(1), Bytes: []byte{1}})
	// Touch it so it gets a second chance against the next insert.
	if _, ok := c.Get(ref(1)); !ok {
		t.Fatal("expected hit on ref(1)")
	}
	c.Insert(ref(2), model.AlbumArt{Ref: ref(2), Bytes: []byte{2}})
	// ref(1) had a second chance: the clock pass re-queues it once, then
	// must evict something to make room. With capacity 1 and only ref(1) in
	// the queue, the second pass evicts ref(1) after clearing its used bit.
	if _, ok := c.Get(ref(1)); ok {
		t.Fatal("expected ref(1) evicted after its second chance was spent")
	}
	if _, ok := c.Get(ref(2)); !ok {
		t.Fatal("expected ref(2) present")
	}
	if s := c.Stats(); s.Size != 1 {
		t.Fatalf("expected size 1, got %d", s.Size)
	}
}

func TestArtLRUCapacityOneNoTouchEvictsImmediately(t *testing.T) {
	c, _ := NewArtLRU(1)
	c.Insert(ref(1), model.AlbumArt{Ref: ref(1)})
	c.Insert(ref(2), model.AlbumArt{Ref: ref(2)})
	if _, ok := c.Get(ref(1)); ok {
		t.Fatal("expected ref(1) evicted without a second chance")
	}
}

func TestArtLRUSizeNeverExceedsCapacity(t *testing.T) {
	c, _ := NewArtLRU(3)
	for i := 0; i < 50; i++ {
		c.Insert(ref(i), model.AlbumArt{Ref: ref(i)})
		if s := c.Stats(); s.Size > 3 {
			t.Fatalf("size %d exceeded capacity 3 at i=%d", s.Size, i)
		}
	}
}

func TestArtLRUResizeShrinksEagerly(t *testing.T) {
	c, _ := NewArtLRU(10)
	for i := 0; i < 8; i++ {
		c.Insert(ref(i), model.AlbumArt{Ref: ref(i)})
	}
	if err := c.Resize(3); err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Size > 3 {
		t.Fatalf("expected size <= 3 after resize, got %d", s.Size)
	}
	if err := c.Resize(0); err == nil {
		t.Fatal("expected resize to 0 to be rejected")
	}
}

func TestArtLRUEvictSlot(t *testing.T) {
	c, _ := NewArtLRU(10)
	slotA := model.SlotRef{Player: 1, Slot: model.SlotSD}
	slotB := model.SlotRef{Player: 2, Slot: model.SlotUSB}
	a1 := model.DataRef{Slot: slotA, RekordboxID: 1}
	a2 := model.DataRef{Slot: slotA, RekordboxID: 2}
	b1 := model.DataRef{Slot: slotB, RekordboxID: 1}
	c.Insert(a1, model.AlbumArt{Ref: a1})
	c.Insert(a2, model.AlbumArt{Ref: a2})
	c.Insert(b1, model.AlbumArt{Ref: b1})

	if n := c.EvictSlot(slotA); n != 2 {
		t.Fatalf("expected 2 evicted, got %d", n)
	}
	if _, ok := c.Get(a1); ok {
		t.Fatal("a1 should be gone")
	}
	if _, ok := c.Get(b1); !ok {
		t.Fatal("b1 should remain")
	}
}

func TestHotCacheActiveDeckVsHotCueNotification(t *testing.T) {
	h := NewHotCache()
	track := model.DataRef{Slot: model.SlotRef{Player: 2, Slot: model.SlotUSB}, RekordboxID: 77}
	active := model.DeckRef{Player: 2, HotCue: 0}
	hotCue := model.DeckRef{Player: 2, HotCue: 1}

	h.Set(active, model.AssetAlbumArt, track, model.AlbumArt{Ref: track})
	h.Set(hotCue, model.AssetAlbumArt, track, model.AlbumArt{Ref: track})

	if affectsActive := h.EvictDeck(hotCue); affectsActive {
		t.Fatal("evicting a hot-cue-only entry should not report an active-deck change")
	}
	if affectsActive := h.EvictDeck(active); !affectsActive {
		t.Fatal("evicting the active deck's entry should report a change")
	}
}

func TestHotCacheFindByTrackPromotesWithoutProvider(t *testing.T) {
	h := NewHotCache()
	track := model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: 5}
	deck1 := model.DeckRef{Player: 1, HotCue: 0}
	art := model.AlbumArt{Ref: track, Bytes: []byte{0xAB}}
	h.Set(deck1, model.AssetAlbumArt, track, art)

	got, ok := h.FindByTrack(model.AssetAlbumArt, track)
	if !ok {
		t.Fatal("expected to find art by track")
	}
	if got.(model.AlbumArt).Ref != track {
		t.Fatal("unexpected art returned")
	}
}

func TestHotCacheEvictSlotClearsOnlyThatSlot(t *testing.T) {
	h := NewHotCache()
	slotSD := model.SlotRef{Player: 2, Slot: model.SlotSD}
	slotUSB := model.SlotRef{Player: 2, Slot: model.SlotUSB}
	trackSD := model.DataRef{Slot: slotSD, RekordboxID: 1}
	trackUSB := model.DataRef{Slot: slotUSB, RekordboxID: 2}
	deckSD := model.DeckRef{Player: 2}
	deckUSB := model.DeckRef{Player: 3}

	h.Set(deckSD, model.AssetMetadata, trackSD, model.TrackMetadata{Track: trackSD})
	h.Set(deckUSB, model.AssetMetadata, trackUSB, model.TrackMetadata{Track: trackUSB})

	affected := h.EvictSlot(slotSD)
	if len(affected) != 1 || affected[0] != deckSD {
		t.Fatalf("expected deckSD to be reported affected, got %v", affected)
	}
	if _, ok := h.Get(deckSD, model.AssetMetadata); ok {
		t.Fatal("expected deckSD metadata evicted")
	}
	if _, ok := h.Get(deckUSB, model.AssetMetadata); !ok {
		t.Fatal("expected deckUSB metadata to remain")
	}
}

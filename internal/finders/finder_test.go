// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package finders

import (
	"context"
	"testing"
	"time"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/resolver"
)

type fakeLive struct {
	value any
	err   error
}

func (f *fakeLive) FetchLive(_ context.Context, _ model.DataRef, _ model.AssetKind, _ model.MediaDetails, _ model.TagKey) (any, error) {
	return f.value, f.err
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(time.Millisecond):
		}
	}
}

func newTestFinder(kind model.AssetKind, live *fakeLive) (*Finder, *cache.HotCache) {
	hot := cache.NewHotCache()
	r := resolver.New(hot, nil, resolver.NewRegistry(), live)
	bus := NewBus()
	return New(kind, bus, hot, r), hot
}

func beatGridTrack(id int) model.DataRef {
	return model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: id}
}

func TestHandleUpdateNullMetadataEvictsAndNotifies(t *testing.T) {
	f, hot := newTestFinder(model.AssetBeatGrid, &fakeLive{})
	deck := model.DeckRef{Player: 1}
	track := beatGridTrack(1)
	hot.Set(deck, model.AssetBeatGrid, track, model.NewBeatGrid([]int64{0, 500}))

	notified := make(chan Notification, 1)
	f.AddListener(func(n Notification) { notified <- n })

	f.handleUpdate(model.TrackUpdate{Player: 1, Metadata: nil})

	select {
	case n := <-notified:
		if n.Asset != nil {
			t.Fatal("expected nil asset notification on eviction")
		}
	case <-time.After(time.Second):
		t.Fatal("expected eviction notification")
	}
	if _, ok := hot.Get(deck, model.AssetBeatGrid); ok {
		t.Fatal("expected deck evicted")
	}
}

func TestHandleUpdateNonRekordboxTrackClearsDeckSilentlyIfEmpty(t *testing.T) {
	f, _ := newTestFinder(model.AssetBeatGrid, &fakeLive{})
	notified := make(chan Notification, 1)
	f.AddListener(func(n Notification) { notified <- n })

	f.handleUpdate(model.TrackUpdate{Player: 1, TrackType: model.TrackTypeUnanalyzed, Metadata: &model.TrackMetadata{}})

	select {
	case n := <-notified:
		t.Fatalf("expected no notification for an already-empty deck, got %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleUpdateResolvesViaLiveFetchAndCaches(t *testing.T) {
	grid := model.NewBeatGrid([]int64{0, 500, 1000})
	f, hot := newTestFinder(model.AssetBeatGrid, &fakeLive{value: grid})
	deck := model.DeckRef{Player: 1}
	track := beatGridTrack(2)

	notified := make(chan Notification, 1)
	f.AddListener(func(n Notification) { notified <- n })

	f.handleUpdate(model.TrackUpdate{
		Player:    1,
		Track:     track,
		TrackType: model.TrackTypeRekordbox,
		Metadata:  &model.TrackMetadata{Track: track},
	})

	select {
	case n := <-notified:
		if n.Asset == nil {
			t.Fatal("expected resolved asset notification")
		}
	case <-time.After(time.Second):
		t.Fatal("expected resolution to complete")
	}
	if _, ok := hot.Get(deck, model.AssetBeatGrid); !ok {
		t.Fatal("expected hot cache populated after live resolve")
	}
}

func TestHandleUpdateSameTrackIsNoOp(t *testing.T) {
	grid := model.NewBeatGrid([]int64{0, 500})
	live := &fakeLive{value: grid}
	f, hot := newTestFinder(model.AssetBeatGrid, live)
	track := beatGridTrack(3)
	u := model.TrackUpdate{Player: 1, Track: track, TrackType: model.TrackTypeRekordbox, Metadata: &model.TrackMetadata{Track: track}}

	f.handleUpdate(u)
	waitForCondition(t, func() bool {
		_, ok := hot.Get(model.DeckRef{Player: 1}, model.AssetBeatGrid)
		return ok
	})

	hot.Set(model.DeckRef{Player: 1}, model.AssetBeatGrid, track, "sentinel")
	f.handleUpdate(u) // same track again; must not re-resolve and overwrite the sentinel
	time.Sleep(20 * time.Millisecond)

	v, _ := hot.Get(model.DeckRef{Player: 1}, model.AssetBeatGrid)
	if v != "sentinel" {
		t.Fatalf("expected no re-resolution for an unchanged track, got %v", v)
	}
}

func TestHandleUpdateHotCueReusePromotesWithoutLiveFetch(t *testing.T) {
	grid := model.NewBeatGrid([]int64{0, 500})
	f, hot := newTestFinder(model.AssetBeatGrid, &fakeLive{value: grid})
	track := beatGridTrack(4)
	deckA := model.DeckRef{Player: 1, HotCue: 0}
	deckB := model.DeckRef{Player: 1, HotCue: 1}
	hot.Set(deckA, model.AssetBeatGrid, track, grid)

	notified := make(chan Notification, 1)
	f.AddListener(func(n Notification) { notified <- n })

	f.handleUpdate(model.TrackUpdate{Player: 1, HotCue: 1, Track: track, TrackType: model.TrackTypeRekordbox, Metadata: &model.TrackMetadata{Track: track}})

	select {
	case n := <-notified:
		if n.Deck != deckB {
			t.Fatalf("expected notification for deckB, got %+v", n.Deck)
		}
	case <-time.After(time.Second):
		t.Fatal("expected hot-cue reuse notification")
	}
}

func TestHandleUpdateFansOutToHotCuePositions(t *testing.T) {
	grid := model.NewBeatGrid([]int64{0, 500})
	f, hot := newTestFinder(model.AssetBeatGrid, &fakeLive{value: grid})
	track := beatGridTrack(5)
	cueList := model.NewCueList([]model.CueEntry{{HotCueNumber: 1, CuePosition: 0}}, nil, nil)

	f.handleUpdate(model.TrackUpdate{
		Player:    1,
		Track:     track,
		TrackType: model.TrackTypeRekordbox,
		Metadata:  &model.TrackMetadata{Track: track, CueList: cueList},
	})

	waitForCondition(t, func() bool {
		_, ok := hot.Get(model.DeckRef{Player: 1, HotCue: 1}, model.AssetBeatGrid)
		return ok
	})
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/model"
)

type fakeProvider struct {
	media  []string
	answer any
	kind   model.AssetKind
}

func (f *fakeProvider) SupportedMedia() []string { return f.media }
func (f *fakeProvider) Resolve(_ context.Context, _ model.DataRef, kind model.AssetKind, _ model.MediaDetails, _ model.TagKey) (any, bool) {
	if kind != f.kind {
		return nil, false
	}
	return f.answer, true
}

type fakeLive struct {
	calls int
	err   error
	value any
}

func (f *fakeLive) FetchLive(_ context.Context, _ model.DataRef, _ model.AssetKind, _ model.MediaDetails, _ model.TagKey) (any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func usbTrack(id int) model.DataRef {
	return model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: id}
}

func TestResolveHotCacheShortCircuitsEverythingElse(t *testing.T) {
	hot := cache.NewHotCache()
	deck := model.DeckRef{Player: 1}
	track := usbTrack(1)
	hot.Set(deck, model.AssetMetadata, track, model.TrackMetadata{Track: track, Title: "cached"})

	r := New(hot, nil, NewRegistry(), &fakeLive{})
	v, err := r.Resolve(context.Background(), deck, model.AssetMetadata, track, model.MediaDetails{}, model.TagKey{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.(model.TrackMetadata).Title != "cached" {
		t.Fatalf("expected cached value, got %+v", v)
	}
}

func TestResolveProviderChainBeforeLiveFetch(t *testing.T) {
	hot := cache.NewHotCache()
	reg := NewRegistry()
	reg.AddProvider(&fakeProvider{kind: model.AssetMetadata, answer: model.TrackMetadata{Title: "from-provider"}})
	live := &fakeLive{value: model.TrackMetadata{Title: "from-live"}}

	r := New(hot, nil, reg, live)
	deck := model.DeckRef{Player: 1}
	track := usbTrack(2)
	v, err := r.Resolve(context.Background(), deck, model.AssetMetadata, track, model.MediaDetails{}, model.TagKey{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.(model.TrackMetadata).Title != "from-provider" {
		t.Fatal("expected provider to satisfy before live fetch")
	}
	if live.calls != 0 {
		t.Fatal("live fetch should not have been called")
	}
}

func TestResolvePassiveModeSuppressesLiveFetchOnNonCollectionSlot(t *testing.T) {
	hot := cache.NewHotCache()
	live := &fakeLive{value: model.TrackMetadata{Title: "live"}}
	r := New(hot, nil, NewRegistry(), live)
	r.SetPassive(true)

	deck := model.DeckRef{Player: 1}
	track := usbTrack(3)
	_, err := r.Resolve(context.Background(), deck, model.AssetMetadata, track, model.MediaDetails{}, model.TagKey{}, false)
	if !errors.Is(err, ErrPassiveSuppressed) {
		t.Fatalf("expected passive suppression, got %v", err)
	}
	if live.calls != 0 {
		t.Fatal("live fetcher must not run while passive and slot is not COLLECTION")
	}
}

func TestResolvePassiveModeAllowsCollectionSlot(t *testing.T) {
	hot := cache.NewHotCache()
	live := &fakeLive{value: model.TrackMetadata{Title: "collection-live"}}
	r := New(hot, nil, NewRegistry(), live)
	r.SetPassive(true)

	deck := model.DeckRef{Player: 1}
	track := model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotCollection}, RekordboxID: 4}
	v, err := r.Resolve(context.Background(), deck, model.AssetMetadata, track, model.MediaDetails{}, model.TagKey{}, false)
	if err != nil {
		t.Fatalf("expected COLLECTION slot to permit live fetch, got %v", err)
	}
	if v.(model.TrackMetadata).Title != "collection-live" {
		t.Fatal("unexpected result")
	}
}

func TestResolveAlbumArtWritesThroughToLRU(t *testing.T) {
	hot := cache.NewHotCache()
	art, err := cache.NewArtLRU(4)
	if err != nil {
		t.Fatal(err)
	}
	track := usbTrack(5)
	live := &fakeLive{value: model.AlbumArt{Ref: track, Bytes: []byte{1, 2, 3}}}
	r := New(hot, art, NewRegistry(), live)

	deck := model.DeckRef{Player: 1}
	_, err = r.Resolve(context.Background(), deck, model.AssetAlbumArt, track, model.MediaDetails{}, model.TagKey{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := art.Get(track); !ok {
		t.Fatal("expected album art to be written through to the LRU")
	}
}

func TestResolveHotCueReusePromotesFromAnotherDeck(t *testing.T) {
	hot := cache.NewHotCache()
	track := usbTrack(6)
	deckA := model.DeckRef{Player: 1, HotCue: 0}
	deckB := model.DeckRef{Player: 1, HotCue: 1}
	hot.Set(deckA, model.AssetBeatGrid, track, model.NewBeatGrid([]int64{0, 500}))

	r := New(hot, nil, NewRegistry(), &fakeLive{})
	v, err := r.Resolve(context.Background(), deckB, model.AssetBeatGrid, track, model.MediaDetails{}, model.TagKey{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.(*model.BeatGrid).BeatCount() != 2 {
		t.Fatal("expected reused beat grid")
	}
	if _, ok := hot.Get(deckB, model.AssetBeatGrid); !ok {
		t.Fatal("expected reuse to also populate deckB's entry")
	}
}

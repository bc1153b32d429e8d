// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package finders

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/deepspin/trackcore/internal/acquirer"
	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/dedupe"
	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/notify"
	"github.com/deepspin/trackcore/internal/resolver"
)

// Notification is delivered to a Finder's listeners whenever a deck's asset
// resolves or clears. Asset is nil when the deck has no answer.
type Notification struct {
	Deck  model.DeckRef
	Kind  model.AssetKind
	Asset any
}

// Finder runs the uniform per-asset-kind state machine described by the
// coordination core: it consumes track-metadata-update events for one asset
// kind off its bounded bus topic, resolves against the shared hot cache and
// resolver chain, and fans results out to registered listeners.
type Finder struct {
	kind     model.AssetKind
	topic    string
	bus      *Bus
	hot      *cache.HotCache
	resolve  *resolver.Resolver
	inFlight *dedupe.Set[model.DeckRef]
	listen   *notify.Notifier[Notification]
	acq      *acquirer.Acquirer

	name      string
	dependsOn string
	lifecycle *LifecycleBus

	mu         sync.Mutex
	lastTrack  map[model.DeckRef]model.DataRef
	lastUpdate map[model.DeckRef]model.TrackUpdate
}

// New constructs a Finder for kind, subscribed to its own bus topic.
func New(kind model.AssetKind, bus *Bus, hot *cache.HotCache, resolve *resolver.Resolver) *Finder {
	return &Finder{
		kind:       kind,
		topic:      "finder." + kind.String(),
		bus:        bus,
		hot:        hot,
		resolve:    resolve,
		inFlight:   dedupe.New[model.DeckRef](),
		listen:     notify.New[Notification](),
		lastTrack:  make(map[model.DeckRef]model.DataRef),
		lastUpdate: make(map[model.DeckRef]model.TrackUpdate),
	}
}

// BindAcquirer wires a shared Acquirer into this finder so that every
// observed track-metadata update also triggers a slot database acquisition.
// Only the metadata finder should be bound, since HandleMediaDetails only
// needs to run once per update regardless of how many asset kinds are
// listening to the same underlying events.
func (f *Finder) BindAcquirer(acq *acquirer.Acquirer) {
	f.acq = acq
}

// BindLifecycle registers this finder under name on lc, and — if dependsOn
// is non-empty — arranges for this finder to stop as soon as dependsOn
// reports a Stopped event. Every asset finder but the metadata finder
// depends on "metadata": once the metadata finder stops, holding its own
// cache entries open is pointless.
func (f *Finder) BindLifecycle(lc *LifecycleBus, name, dependsOn string) {
	f.lifecycle = lc
	f.name = name
	f.dependsOn = dependsOn
}

// Publish enqueues a track-metadata-update event on the finder's topic. This
// is the only entry point an upstream event source (the packet-receive
// path) uses; it never blocks, per the bounded-queue, drop-newest contract.
func (f *Finder) Publish(u model.TrackUpdate) {
	f.bus.Publish(f.topic, u)
}

// AddListener registers l to receive this finder's notifications. The first
// listener to register is primed: for every deck with a current track
// update, the asset already in the hot cache (if any) is delivered to l
// directly, so a listener that subscribes after tracks are already loaded
// isn't left waiting for the next player event to learn about them. Unlike
// TagFinder's priming, nothing is resolved again.
func (f *Finder) AddListener(l notify.Listener[Notification]) notify.Subscription {
	f.mu.Lock()
	wasEmpty := f.listen.Len() == 0
	var toPrime []model.DeckRef
	if wasEmpty {
		for deck := range f.lastUpdate {
			toPrime = append(toPrime, deck)
		}
	}
	f.mu.Unlock()

	sub := f.listen.Add(l)

	for _, deck := range toPrime {
		if asset, ok := f.hot.Get(deck, f.kind); ok {
			l(Notification{Deck: deck, Kind: f.kind, Asset: asset})
		}
	}
	return sub
}

// RemoveListener unregisters a previously added listener.
func (f *Finder) RemoveListener(sub notify.Subscription) {
	f.listen.Remove(sub)
}

// Serve drains the finder's queue until ctx is canceled, the suture-
// compatible dispatcher loop backing this finder's single worker. When
// bound to a LifecycleBus, it publishes a Started event on entry and a
// Stopped event on exit, and stops itself early if its declared dependency
// reports a Stopped event first.
func (f *Finder) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if f.lifecycle != nil {
		f.lifecycle.Publish(LifecycleEvent{Name: f.name, Started: true})
		defer f.lifecycle.Publish(LifecycleEvent{Name: f.name, Started: false})
		if f.dependsOn != "" {
			sub := f.lifecycle.Subscribe(func(ev LifecycleEvent) {
				if ev.Name == f.dependsOn && !ev.Started {
					cancel()
				}
			})
			defer f.lifecycle.Unsubscribe(sub)
		}
	}

	msgs, err := f.bus.Subscribe(ctx, f.topic)
	if err != nil {
		return fmt.Errorf("finders: %s: %w", f.kind, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			f.handleMessage(msg)
		}
	}
}

func (f *Finder) handleMessage(msg *message.Message) {
	var u model.TrackUpdate
	if err := json.Unmarshal(msg.Payload, &u); err != nil {
		logging.Logger().Error().Err(err).Str("kind", f.kind.String()).Msg("finders: malformed update, dropping")
		msg.Ack()
		f.bus.Release(f.topic)
		return
	}
	f.handleUpdate(u)
	msg.Ack()
	f.bus.Release(f.topic)
}

// handleUpdate implements the uniform state machine from the spec: evict on
// null/non-rekordbox metadata, reuse a hot-cached entry for the same track
// on another deck, or dispatch a deduplicated resolver worker.
func (f *Finder) handleUpdate(u model.TrackUpdate) {
	deck := u.Deck()

	if f.acq != nil {
		f.acq.HandleMediaDetails(context.Background(), u.Track.Slot, u.TrackType)
	}

	if u.Metadata == nil || !u.TrackType.IsRekordbox() {
		f.clearLastTrack(deck)
		f.clearLastUpdate(deck)
		if f.hot.EvictDeck(deck) {
			f.listen.Notify(Notification{Deck: deck, Kind: f.kind, Asset: nil})
		}
		return
	}
	f.setLastUpdate(deck, u)

	if prev, ok := f.getLastTrack(deck); ok && prev == u.Track {
		return // already cached or resolving for this track; nothing changed
	}
	f.setLastTrack(deck, u.Track)

	if asset, ok := f.hot.FindByTrack(f.kind, u.Track); ok {
		f.hot.Set(deck, f.kind, u.Track, asset)
		f.fanOutHotCues(u, asset)
		f.listen.Notify(Notification{Deck: deck, Kind: f.kind, Asset: asset})
		return
	}

	f.inFlight.Dispatch(deck, func() {
		f.hot.EvictDeck(deck)
		asset, err := f.resolve.Resolve(context.Background(), deck, f.kind, u.Track, u.Media, model.TagKey{}, true)
		if err != nil || asset == nil {
			if err != nil {
				logging.Logger().Debug().Err(err).Str("kind", f.kind.String()).Str("deck", deck.String()).Msg("finders: resolve failed, leaving deck cleared")
			}
			return
		}
		f.hot.Set(deck, f.kind, u.Track, asset)
		f.fanOutHotCues(u, asset)
		f.listen.Notify(Notification{Deck: deck, Kind: f.kind, Asset: asset})
	})
}

// fanOutHotCues writes asset into the hot cache for every hot-cue position
// in the track's cue list and notifies listeners for each, per the spec's
// "write for the active deck and every hot-cue position" rule.
func (f *Finder) fanOutHotCues(u model.TrackUpdate, asset any) {
	if u.Metadata == nil || u.Metadata.CueList == nil {
		return
	}
	for _, hotCue := range u.Metadata.CueList.HotCueNumbers() {
		hc := model.DeckRef{Player: u.Player, HotCue: hotCue}
		f.hot.Set(hc, f.kind, u.Track, asset)
		f.listen.Notify(Notification{Deck: hc, Kind: f.kind, Asset: asset})
	}
}

func (f *Finder) getLastTrack(deck model.DeckRef) (model.DataRef, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.lastTrack[deck]
	return t, ok
}

func (f *Finder) setLastTrack(deck model.DeckRef, track model.DataRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTrack[deck] = track
}

func (f *Finder) clearLastTrack(deck model.DeckRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lastTrack, deck)
}

func (f *Finder) setLastUpdate(deck model.DeckRef, u model.TrackUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate[deck] = u
}

func (f *Finder) clearLastUpdate(deck model.DeckRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lastUpdate, deck)
}

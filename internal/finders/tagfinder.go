// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package finders

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/dedupe"
	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/notify"
	"github.com/deepspin/trackcore/internal/resolver"
)

// tagDeck is the active-request key for analysis tags: a player's deck
// joined with the (fileExt, typeTag) pair being resolved, per the spec's
// "(p, typeTag+fileExt)" dedupe key for this finder specialization.
type tagDeck struct {
	Deck model.DeckRef
	Key  model.TagKey
}

// TagNotification is delivered whenever an analysis-tag section resolves or
// clears for a deck.
type TagNotification struct {
	Deck model.DeckRef
	Key  model.TagKey
	// Section is the zero value when the tag has cleared.
	Section model.TaggedSection
	Present bool
}

// TagFinder is the analysis-tag finder specialization: unlike the other
// asset kinds, it tracks independent state per (fileExt, typeTag) pair, only
// for pairs with at least one registered listener, and primes a freshly
// registered pair against every currently loaded track.
type TagFinder struct {
	bus     *Bus
	topic   string
	hot     *cache.HotCache
	resolve *resolver.Resolver

	name      string
	dependsOn string
	lifecycle *LifecycleBus

	mu         sync.Mutex
	lastTrack  map[tagDeck]model.DataRef
	lastUpdate map[model.DeckRef]model.TrackUpdate
	listeners  map[model.TagKey]*notify.Notifier[TagNotification]
	inFlight   *dedupe.Set[tagDeck]
}

// NewTagFinder constructs an analysis-tag finder subscribed to its own bus
// topic, distinct from the fixed-kind finders.
func NewTagFinder(bus *Bus, hot *cache.HotCache, resolve *resolver.Resolver) *TagFinder {
	return &TagFinder{
		bus:        bus,
		topic:      "finder." + model.AssetAnalysisTag.String(),
		hot:        hot,
		resolve:    resolve,
		lastTrack:  make(map[tagDeck]model.DataRef),
		lastUpdate: make(map[model.DeckRef]model.TrackUpdate),
		listeners:  make(map[model.TagKey]*notify.Notifier[TagNotification]),
		inFlight:   dedupe.New[tagDeck](),
	}
}

// Publish enqueues a track-metadata-update event for the analysis-tag
// finder to replay against every registered (fileExt, typeTag) pair.
func (f *TagFinder) Publish(u model.TrackUpdate) {
	f.bus.Publish(f.topic, u)
}

// AddListener registers l for key. The first listener for a previously
// unwatched key primes the cache by replaying every currently loaded
// track's last update against it.
func (f *TagFinder) AddListener(key model.TagKey, l notify.Listener[TagNotification]) notify.Subscription {
	f.mu.Lock()
	n, existed := f.listeners[key]
	if !existed {
		n = notify.New[TagNotification]()
		f.listeners[key] = n
	}
	sub := n.Add(l)
	var toPrime []model.TrackUpdate
	if !existed {
		for _, u := range f.lastUpdate {
			toPrime = append(toPrime, u)
		}
	}
	f.mu.Unlock()

	for _, u := range toPrime {
		f.resolveTag(u, key)
	}
	return sub
}

// RemoveListener unregisters l for key, dropping the key's bookkeeping
// entirely once its last listener is gone.
func (f *TagFinder) RemoveListener(key model.TagKey, sub notify.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.listeners[key]
	if !ok {
		return
	}
	n.Remove(sub)
	if n.Len() == 0 {
		delete(f.listeners, key)
	}
}

// BindLifecycle registers this finder under name on lc, stopping it early if
// dependsOn reports a Stopped event, mirroring Finder.BindLifecycle.
func (f *TagFinder) BindLifecycle(lc *LifecycleBus, name, dependsOn string) {
	f.lifecycle = lc
	f.name = name
	f.dependsOn = dependsOn
}

// Serve drains the analysis-tag topic until ctx is canceled.
func (f *TagFinder) Serve(ctx context.Context) error {
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
		return err
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

func (f *TagFinder) handleMessage(msg *message.Message) {
	var u model.TrackUpdate
	if err := json.Unmarshal(msg.Payload, &u); err != nil {
		logging.Logger().Error().Err(err).Msg("finders: analysis-tag: malformed update, dropping")
		msg.Ack()
		f.bus.Release(f.topic)
		return
	}
	f.handleUpdate(u)
	msg.Ack()
	f.bus.Release(f.topic)
}

func (f *TagFinder) handleUpdate(u model.TrackUpdate) {
	deck := u.Deck()

	f.mu.Lock()
	if u.Metadata == nil || !u.TrackType.IsRekordbox() {
		delete(f.lastUpdate, deck)
	} else {
		f.lastUpdate[deck] = u
	}
	keys := make([]model.TagKey, 0, len(f.listeners))
	for k := range f.listeners {
		keys = append(keys, k)
	}
	f.mu.Unlock()

	if u.Metadata == nil || !u.TrackType.IsRekordbox() {
		present := make(map[model.TagKey]bool, len(keys))
		for _, key := range keys {
			_, present[key] = f.hot.GetTag(deck, key)
		}
		for _, key := range keys {
			f.evictTag(deck, key, present[key])
		}
		return
	}
	for _, key := range keys {
		f.resolveTag(u, key)
	}
}

func (f *TagFinder) evictTag(deck model.DeckRef, key model.TagKey, present bool) {
	f.mu.Lock()
	delete(f.lastTrack, tagDeck{Deck: deck, Key: key})
	n := f.listeners[key]
	f.mu.Unlock()

	f.hot.EvictDeck(deck)
	if present && deck.IsActiveDeck() && n != nil {
		n.Notify(TagNotification{Deck: deck, Key: key, Present: false})
	}
}

func (f *TagFinder) resolveTag(u model.TrackUpdate, key model.TagKey) {
	deck := u.Deck()
	tk := tagDeck{Deck: deck, Key: key}

	f.mu.Lock()
	prev, ok := f.lastTrack[tk]
	f.mu.Unlock()
	if ok && prev == u.Track {
		return
	}
	f.mu.Lock()
	f.lastTrack[tk] = u.Track
	f.mu.Unlock()

	if section, ok := f.hot.FindTagByTrack(key, u.Track); ok {
		f.hot.SetTag(deck, key, u.Track, section)
		f.notifyTag(deck, key, section, true)
		return
	}

	f.inFlight.Dispatch(tk, func() {
		asset, err := f.resolve.Resolve(context.Background(), deck, model.AssetAnalysisTag, u.Track, u.Media, key, true)
		if err != nil || asset == nil {
			return
		}
		section, ok := asset.(model.TaggedSection)
		if !ok {
			return
		}
		f.hot.SetTag(deck, key, u.Track, section)
		f.notifyTag(deck, key, section, true)
	})
}

func (f *TagFinder) notifyTag(deck model.DeckRef, key model.TagKey, section model.TaggedSection, present bool) {
	f.mu.Lock()
	n := f.listeners[key]
	f.mu.Unlock()
	if n != nil {
		n.Notify(TagNotification{Deck: deck, Key: key, Section: section, Present: present})
	}
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package resolver implements the ordered-source resolution chain: hot
// cache, album art LRU, registered providers, and finally a live dbserver
// query gated by passive mode and protected by a per-player circuit
// breaker. It is the component every asset finder drives to turn a
// (deck, asset kind) question into either a cached answer or a dispatched
// fetch.
package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/metrics"
	"github.com/deepspin/trackcore/internal/model"
)

// LiveFetcher performs the actual dbserver network round trip for a kind
// that isn't satisfied by any cheaper source. It is the seam the resolver's
// caller (the relevant asset finder) fills in with a transport-layer call.
type LiveFetcher interface {
	FetchLive(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, error)
}

// Resolver composes the hot cache, the album art LRU, a provider registry,
// and a live-fetch fallback into the chain described by the coordination
// core's asset resolution rules.
type Resolver struct {
	hot      *cache.HotCache
	art      *cache.ArtLRU
	registry *Registry
	live     LiveFetcher

	passive       bool
	passiveMu     sync.RWMutex
	breakers      map[int]*gobreaker.CircuitBreaker[any]
	breakersMu    sync.Mutex
	breakerConfig gobreaker.Settings
}

// New constructs a Resolver. art may be nil if the caller never resolves
// album art through this instance (e.g. a resolver scoped to a non-art
// asset kind can omit the LRU).
func New(hot *cache.HotCache, art *cache.ArtLRU, registry *Registry, live LiveFetcher) *Resolver {
	return &Resolver{
		hot:      hot,
		art:      art,
		registry: registry,
		live:     live,
		breakers: make(map[int]*gobreaker.CircuitBreaker[any]),
		breakerConfig: gobreaker.Settings{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		},
	}
}

// SetPassive toggles passive mode: when true, no live dbserver request is
// made for a non-collection slot regardless of failIfPassive.
func (r *Resolver) SetPassive(passive bool) {
	r.passiveMu.Lock()
	defer r.passiveMu.Unlock()
	r.passive = passive
}

func (r *Resolver) isPassive() bool {
	r.passiveMu.RLock()
	defer r.passiveMu.RUnlock()
	return r.passive
}

// Resolve walks hot cache -> LRU (album art only) -> provider registry ->
// live dbserver fetch, in that order, stopping at the first source that
// answers. deck identifies the cache slot to write a live result back to;
// failIfPassive, when true, additionally suppresses the live fetch outside
// of passive mode's own gating (used by finders that would rather report
// "unknown" than block on a slow network call).
func (r *Resolver) Resolve(ctx context.Context, deck model.DeckRef, kind model.AssetKind, track model.DataRef, media model.MediaDetails, tag model.TagKey, failIfPassive bool) (any, error) {
	start := time.Now()
	source := "miss"
	defer func() {
		metrics.ResolverLatency.WithLabelValues(kind.String(), source).Observe(time.Since(start).Seconds())
	}()

	if v, ok := r.getCached(deck, kind, tag); ok {
		source = "hotcache"
		return v, nil
	}
	if v, ok := r.findCachedByTrack(kind, tag, track); ok {
		source = "hotcache-reuse"
		r.store(deck, kind, tag, track, v)
		return v, nil
	}
	if kind == model.AssetAlbumArt && r.art != nil {
		if v, ok := r.art.Get(track); ok {
			source = "lru"
			r.store(deck, kind, tag, track, v)
			return v, nil
		}
	}
	if v, ok := r.registry.Resolve(ctx, track, kind, media, tag); ok {
		source = "provider"
		r.store(deck, kind, tag, track, v)
		return v, nil
	}

	if !r.liveAllowed(track.Slot, failIfPassive) {
		return nil, ErrPassiveSuppressed
	}
	v, err := r.fetchLive(ctx, track, kind, media, tag)
	if err != nil {
		return nil, err
	}
	source = "live"
	r.store(deck, kind, tag, track, v)
	return v, nil
}

// getCached answers Resolve's first hot-cache lookup. AssetAnalysisTag
// entries live in the hot cache's separate tagged-section map, keyed by
// TagKey rather than by AssetKind, so they need their own accessor.
func (r *Resolver) getCached(deck model.DeckRef, kind model.AssetKind, tag model.TagKey) (any, bool) {
	if kind == model.AssetAnalysisTag {
		section, ok := r.hot.GetTag(deck, tag)
		if !ok {
			return nil, false
		}
		return section, true
	}
	return r.hot.Get(deck, kind)
}

// findCachedByTrack answers Resolve's cross-deck reuse lookup, with the same
// AssetAnalysisTag special-casing as getCached.
func (r *Resolver) findCachedByTrack(kind model.AssetKind, tag model.TagKey, track model.DataRef) (any, bool) {
	if kind == model.AssetAnalysisTag {
		section, ok := r.hot.FindTagByTrack(tag, track)
		if !ok {
			return nil, false
		}
		return section, true
	}
	return r.hot.FindByTrack(kind, track)
}

// liveAllowed implements the passive-mode gating rule: a COLLECTION slot is
// always permitted (rekordbox on a desktop is authoritative), otherwise the
// request is blocked while passive, or when the caller opted out via
// failIfPassive even outside passive mode.
func (r *Resolver) liveAllowed(slot model.SlotRef, failIfPassive bool) bool {
	if slot.Slot == model.SlotCollection {
		return true
	}
	if r.isPassive() {
		return false
	}
	return !failIfPassive
}

// store writes a resolved value back to the hot cache, special-casing
// AssetAnalysisTag the same way getCached/findCachedByTrack do: a tagged
// section is keyed by TagKey, not by AssetKind, and lives in the hot cache's
// separate tag map.
func (r *Resolver) store(deck model.DeckRef, kind model.AssetKind, tag model.TagKey, track model.DataRef, v any) {
	if kind == model.AssetAnalysisTag {
		section, ok := v.(model.TaggedSection)
		if !ok {
			return
		}
		r.hot.SetTag(deck, tag, track, section)
		return
	}
	r.hot.Set(deck, kind, track, v)
	if kind == model.AssetAlbumArt && r.art != nil {
		if art, ok := v.(model.AlbumArt); ok {
			r.art.Insert(track, art)
		}
	}
}

func (r *Resolver) fetchLive(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, error) {
	if r.live == nil {
		return nil, fmt.Errorf("resolver: no live fetcher configured")
	}
	breaker := r.breakerFor(track.Slot.Player)
	return breaker.Execute(func() (any, error) {
		return r.live.FetchLive(ctx, track, kind, media, tag)
	})
}

func (r *Resolver) breakerFor(player int) *gobreaker.CircuitBreaker[any] {
	r.breakersMu.Lock()
	defer r.breakersMu.Unlock()
	if b, ok := r.breakers[player]; ok {
		return b
	}
	name := fmt.Sprintf("player-%d-dbserver", player)
	settings := r.breakerConfig
	settings.Name = name
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		logging.Logger().Info().Str("breaker", name).Str("from", stateString(from)).Str("to", stateString(to)).Msg("resolver: circuit breaker state change")
		metrics.CircuitBreakerState.WithLabelValues(fmt.Sprintf("%d", player)).Set(metrics.BreakerStateValue(stateString(to)))
	}
	b := gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[player] = b
	return b
}

func stateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// DropPlayer removes a player's circuit breaker state on device loss so a
// rediscovered player starts clean rather than inheriting a tripped breaker.
func (r *Resolver) DropPlayer(player int) {
	r.breakersMu.Lock()
	defer r.breakersMu.Unlock()
	delete(r.breakers, player)
}

// ErrPassiveSuppressed is returned when passive-mode gating (or an explicit
// failIfPassive request) blocks a live dbserver fetch.
var ErrPassiveSuppressed = fmt.Errorf("resolver: live fetch suppressed by passive mode")

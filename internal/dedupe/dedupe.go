// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package dedupe implements the active-request deduplicator: a finder-owned
// set of in-flight keys guaranteeing at most one worker per key runs at a
// time, without blocking the caller. An exact-membership set is used rather
// than a Bloom filter: a false positive here would silently drop a genuine
// request, breaking the at-most-one-in-flight contract the resolver and
// acquirer both depend on.
package dedupe

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/deepspin/trackcore/internal/logging"
)

// Set tracks in-flight request keys of any comparable type and dispatches
// work for keys not already running. A zero Set is not usable; use New.
type Set[K comparable] struct {
	mu       sync.Mutex
	inFlight map[K]struct{}
	limiter  *rate.Limiter
}

// Option configures a Set at construction.
type Option[K comparable] func(*Set[K])

// WithRateLimit caps the rate at which new (non-duplicate) workers may be
// spawned, independent of how many distinct keys are requested; burst sets
// how many may fire back-to-back before the limiter starts delaying. This
// sits in front of the dedupe set so a burst of fresh track loads across a
// whole fleet can't all hit the network in the same instant.
func WithRateLimit[K comparable](eventsPerSecond float64, burst int) Option[K] {
	return func(s *Set[K]) {
		s.limiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst)
	}
}

// New constructs an empty dedupe Set.
func New[K comparable](opts ...Option[K]) *Set[K] {
	s := &Set[K]{inFlight: make(map[K]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch attempts to start work for key. If key is already in flight, it
// returns false immediately without running work. Otherwise it inserts key,
// optionally waits on the rate limiter, and runs work in a new goroutine,
// removing key when work returns regardless of outcome.
func (s *Set[K]) Dispatch(key K, work func()) bool {
	s.mu.Lock()
	if _, busy := s.inFlight[key]; busy {
		s.mu.Unlock()
		return false
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer s.remove(key)
		if s.limiter != nil {
			if err := s.limiter.Wait(context.Background()); err != nil {
				logging.Logger().Warn().Err(err).Any("key", key).Msg("dedupe: rate limiter wait failed")
			}
		}
		work()
	}()
	return true
}

func (s *Set[K]) remove(key K) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// InFlight reports whether key currently has a worker running.
func (s *Set[K]) InFlight(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[key]
	return busy
}

// Len returns the number of keys currently in flight.
func (s *Set[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Keys returns a snapshot of the in-flight keys, for diagnostics.
func (s *Set[K]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]K, 0, len(s.inFlight))
	for k := range s.inFlight {
		out = append(out, k)
	}
	return out
}

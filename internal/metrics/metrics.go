// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package metrics exposes the coordination core's Prometheus instrumentation:
// finder queue health, the two cache tiers, resolver latency, the acquirer's
// retry behavior, per-player circuit breaker state, and the position
// extrapolator's staleness. All metrics are registered at package init via
// promauto so every subsystem can record against them without threading a
// registry handle through its constructor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FinderQueueDepth is the current occupancy of a finder's bounded event
	// queue, labeled by asset kind.
	FinderQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finder_queue_depth",
			Help: "Current depth of a finder's bounded dispatch queue",
		},
		[]string{"kind"},
	)

	// FinderQueueDropped counts events dropped because a finder's queue was
	// full at delivery time (best-effort, drop-newest semantics).
	FinderQueueDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finder_queue_dropped_total",
			Help: "Total events dropped because a finder's dispatch queue was full",
		},
		[]string{"kind"},
	)

	// HotCacheEntries is the total number of (deck, asset kind) entries
	// currently resident in the hot cache.
	HotCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotcache_entries",
			Help: "Number of entries currently held in the hot cache",
		},
	)

	// LRUSize is the album-art LRU's current occupancy.
	LRUSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lru_size",
			Help: "Current number of entries in the album art LRU",
		},
	)

	// LRUHitRate is the album-art LRU's rolling hit rate as a percentage.
	LRUHitRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lru_hit_rate",
			Help: "Album art LRU hit rate as a percentage",
		},
	)

	// ResolverLatency times how long a resolution took to satisfy, labeled
	// by asset kind and which source in the chain satisfied it.
	ResolverLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_latency_seconds",
			Help:    "Latency of asset resolution by kind and satisfying source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "source"},
	)

	// AcquirerFetchRetries counts retry attempts made by the database/
	// analysis file acquirer for a given slot.
	AcquirerFetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquirer_fetch_retries_total",
			Help: "Total retry attempts made acquiring a database or analysis file",
		},
		[]string{"slot"},
	)

	// CircuitBreakerState reports each player's live dbserver circuit
	// breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitbreaker_state",
			Help: "Per-player dbserver circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"player"},
	)

	// ExtrapolatorStateAge reports how long, in seconds, since a player's
	// position state was last refreshed by a beat or status packet.
	ExtrapolatorStateAge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extrapolator_state_age_seconds",
			Help: "Seconds since a player's extrapolated position was last refreshed",
		},
		[]string{"player"},
	)

	// APIRequestDuration times control-API requests by route and status.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Latency of control API requests by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// BreakerStateValue converts a gobreaker state name to the numeric value
// CircuitBreakerState expects.
func BreakerStateValue(name string) float64 {
	switch name {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

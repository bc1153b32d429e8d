// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/metrics"
	"github.com/deepspin/trackcore/internal/position"
)

// ContextService matches any component whose long-running loop already has
// the suture-compatible shape: Serve(ctx) error. Finder, TagFinder, and
// notify.Hub all satisfy this without further wrapping.
type ContextService interface {
	Serve(ctx context.Context) error
}

// NamedService wraps a ContextService with a fixed name so suture's event
// log identifies it by role rather than by Go type.
type NamedService struct {
	svc  ContextService
	name string
}

// Named wraps svc so it reports name to suture's lifecycle logging.
func Named(name string, svc ContextService) *NamedService {
	return &NamedService{svc: svc, name: name}
}

// Serve implements suture.Service.
func (n *NamedService) Serve(ctx context.Context) error {
	return n.svc.Serve(ctx)
}

// String implements fmt.Stringer for suture's logging.
func (n *NamedService) String() string {
	return n.name
}

// MetricsReporter periodically pushes gauges that have no natural event to
// hang a push off of: cache occupancy, LRU hit rate, extrapolator staleness.
type MetricsReporter struct {
	hot      *cache.HotCache
	art      *cache.ArtLRU
	extrap   *position.Extrapolator
	interval time.Duration
}

// NewMetricsReporter constructs a reporter. art may be nil if no LRU is in
// use; extrap may be nil if position tracking is disabled.
func NewMetricsReporter(hot *cache.HotCache, art *cache.ArtLRU, extrap *position.Extrapolator, interval time.Duration) *MetricsReporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &MetricsReporter{hot: hot, art: art, extrap: extrap, interval: interval}
}

// Serve implements suture.Service: it reports metrics on a fixed interval
// until ctx is canceled.
func (m *MetricsReporter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.report(now)
		}
	}
}

func (m *MetricsReporter) report(now time.Time) {
	if m.hot != nil {
		count := 0
		for _, assets := range m.hot.Snapshot() {
			count += len(assets)
		}
		metrics.HotCacheEntries.Set(float64(count))
	}
	if m.art != nil {
		stats := m.art.Stats()
		metrics.LRUSize.Set(float64(stats.Size))
		metrics.LRUHitRate.Set(stats.HitRate())
	}
	if m.extrap != nil {
		m.extrap.ReportMetrics(now)
	}
}

// String implements fmt.Stringer for suture's logging.
func (m *MetricsReporter) String() string {
	return fmt.Sprintf("metrics-reporter(%s)", m.interval)
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/metrics"
	"github.com/deepspin/trackcore/internal/model"
)

type stubContextService struct {
	called chan struct{}
}

func (s *stubContextService) Serve(ctx context.Context) error {
	close(s.called)
	<-ctx.Done()
	return ctx.Err()
}

func TestNamedServiceDelegatesAndReportsName(t *testing.T) {
	stub := &stubContextService{called: make(chan struct{})}
	named := Named("test-role", stub)

	if named.String() != "test-role" {
		t.Errorf("expected String() = %q, got %q", "test-role", named.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- named.Serve(ctx) }()

	select {
	case <-stub.called:
	case <-time.After(time.Second):
		t.Fatal("NamedService.Serve did not delegate to the wrapped service")
	}
	cancel()
	<-done
}

func TestMetricsReporterPushesGaugesOnInterval(t *testing.T) {
	hot := cache.NewHotCache()
	deck := model.DeckRef{Player: 1, HotCue: 0}
	hot.Set(deck, model.AssetMetadata, model.DataRef{}, "fake-metadata")

	art, err := cache.NewArtLRU(4)
	if err != nil {
		t.Fatalf("NewArtLRU: %v", err)
	}

	reporter := NewMetricsReporter(hot, art, nil, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = reporter.Serve(ctx)

	if got := testutil.ToFloat64(metrics.HotCacheEntries); got < 1 {
		t.Errorf("expected HotCacheEntries >= 1 after reporting, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.LRUSize); got != float64(art.Stats().Size) {
		t.Errorf("expected LRUSize gauge to match art.Stats().Size, got %f", got)
	}
}

func TestMetricsReporterDefaultsInterval(t *testing.T) {
	reporter := NewMetricsReporter(nil, nil, nil, 0)
	if reporter.interval != 5*time.Second {
		t.Errorf("expected default interval 5s, got %v", reporter.interval)
	}
}

func TestMetricsReporterStringIncludesInterval(t *testing.T) {
	reporter := NewMetricsReporter(nil, nil, nil, time.Second)
	if reporter.String() == "" {
		t.Error("expected a non-empty String()")
	}
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"context"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/deepspin/trackcore/internal/acquirer"
	"github.com/deepspin/trackcore/internal/audit"
	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/position"
	"github.com/deepspin/trackcore/internal/resolver"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, player int, remotePath, localPath string) error {
	return nil
}

type stubTree struct {
	root *suture.Supervisor
}

func (s stubTree) Root() *suture.Supervisor { return s.root }

func newTestHandler(t *testing.T) (*Handler, *auth.Manager) {
	t.Helper()

	hot := cache.NewHotCache()
	art, err := cache.NewArtLRU(4)
	if err != nil {
		t.Fatalf("NewArtLRU: %v", err)
	}
	extrapolator := position.New()
	reg := resolver.NewRegistry()
	res := resolver.New(hot, art, reg, nil)

	scratch, err := acquirer.NewScratchDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratchDir: %v", err)
	}
	acq := acquirer.New(scratch, stubFetcher{}, 1, nil, nil)

	manager, err := auth.NewManager("this_is_a_very_long_secret_key_for_testing_purposes_12345", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	hash, err := auth.HashPassword("s3cret-operator-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	authn := auth.NewAuthenticator(manager, "operator1", hash)

	store := audit.NewMemoryStore(10)
	auditLogger := audit.NewLogger(store, 4)
	t.Cleanup(auditLogger.Close)

	tree := stubTree{root: suture.NewSimple("test")}

	h := NewHandler(tree, hot, art, extrapolator, res, acq, authn, auditLogger)
	return h, manager
}

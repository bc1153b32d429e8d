// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package audit

import (
	"testing"
	"time"
)

func TestLoggerWritesToStore(t *testing.T) {
	store := NewMemoryStore(10)
	logger := NewLogger(store, 4)
	defer logger.Close()

	logger.Log("operator", "set-passive-mode", map[string]any{"enabled": true})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(store.Recent(0)) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	entries := store.Recent(0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Principal != "operator" || entries[0].Action != "set-passive-mode" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestMemoryStoreEvictsOldestWhenFull(t *testing.T) {
	store := NewMemoryStore(2)
	store.Save(Entry{Principal: "a", Action: "1"})
	store.Save(Entry{Principal: "a", Action: "2"})
	store.Save(Entry{Principal: "a", Action: "3"})

	entries := store.Recent(0)
	if len(entries) != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", len(entries))
	}
	if entries[0].Action != "2" || entries[1].Action != "3" {
		t.Errorf("expected oldest entry evicted, got %+v", entries)
	}
}

func TestMemoryStoreRecentRespectsLimit(t *testing.T) {
	store := NewMemoryStore(10)
	for i := 0; i < 5; i++ {
		store.Save(Entry{Action: "x"})
	}
	if got := len(store.Recent(2)); got != 2 {
		t.Errorf("expected Recent(2) to return 2 entries, got %d", got)
	}
}

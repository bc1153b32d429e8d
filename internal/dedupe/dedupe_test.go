// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchSkipsDuplicateKey(t *testing.T) {
	s := New[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32

	ok := s.Dispatch(1, func() {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
	})
	if !ok {
		t.Fatal("expected first dispatch to start")
	}
	<-started

	if ok := s.Dispatch(1, func() { atomic.AddInt32(&runs, 1) }); ok {
		t.Fatal("expected duplicate dispatch while in flight to be skipped")
	}
	close(release)

	deadline := time.After(time.Second)
	for s.InFlight(1) {
		select {
		case <-deadline:
			t.Fatal("key never cleared after work finished")
		default:
		}
	}
	if atomic.LoadInt32(&runs) != 1 {
		t.Fatalf("expected exactly one run, got %d", runs)
	}
}

func TestDispatchAllowsReentryAfterCompletion(t *testing.T) {
	s := New[string]()
	var wg sync.WaitGroup
	wg.Add(1)
	s.Dispatch("k", func() { wg.Done() })
	wg.Wait()

	deadline := time.After(time.Second)
	for s.InFlight("k") {
		select {
		case <-deadline:
			t.Fatal("key never cleared")
		default:
		}
	}

	wg.Add(1)
	ok := s.Dispatch("k", func() { wg.Done() })
	if !ok {
		t.Fatal("expected dispatch to succeed once the prior run completed")
	}
	wg.Wait()
}

func TestConcurrentDispatchOnlyOneWinnerPerKey(t *testing.T) {
	s := New[int]()
	const attempts = 64
	var wins int32
	var wg sync.WaitGroup
	gate := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			if s.Dispatch(7, func() {
				atomic.AddInt32(&wins, 1)
				time.Sleep(10 * time.Millisecond)
			}) {
				return
			}
		}()
	}
	close(gate)
	wg.Wait()

	deadline := time.After(time.Second)
	for s.InFlight(7) {
		select {
		case <-deadline:
			t.Fatal("key never cleared")
		default:
		}
	}
	if atomic.LoadInt32(&wins) != 1 {
		t.Fatalf("expected exactly one winning dispatch, got %d", wins)
	}
}

func TestKeysSnapshot(t *testing.T) {
	s := New[int]()
	block := make(chan struct{})
	s.Dispatch(1, func() { <-block })
	s.Dispatch(2, func() { <-block })

	deadline := time.After(time.Second)
	for s.Len() != 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 in flight, got %d", s.Len())
		default:
		}
	}
	close(block)
}

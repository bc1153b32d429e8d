// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import "sync"

// pathLock is a refcounted mutex for one canonical path, so the registry
// can forget a key once the last holder releases it instead of growing
// forever as distinct tracks are seen.
type pathLock struct {
	mu   sync.Mutex
	refs int
}

// PathLocks hands out per-canonical-path mutexes so two concurrent readers
// can never both download the same analysis file. Grounded on the teacher's
// acquireIPLock/releaseIPLock pattern (a sync.Map of path to *sync.Mutex),
// extended with a reference count so entries for paths nobody holds anymore
// are evicted rather than accumulating for the life of the process.
type PathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

// NewPathLocks constructs an empty registry.
func NewPathLocks() *PathLocks {
	return &PathLocks{locks: make(map[string]*pathLock)}
}

// Acquire blocks until path's lock is held by this caller. The returned
// func releases it; callers must call it exactly once.
func (p *PathLocks) Acquire(path string) func() {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	released := false
	return func() {
		if released {
			return
		}
		released = true
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, path)
		}
		p.mu.Unlock()
	}
}

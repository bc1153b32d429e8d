// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/deepspin/trackcore/internal/model"
)

// ArtLRU is the bounded second-level cache used for shareable album art.
// It implements clock (second-chance) eviction: every entry gets one bypass
// before it is actually evicted, which approximates recency without the
// per-access list-splice cost of a strict LRU. The map, the FIFO queue, and
// the used set are always mutated together under a single mutex so the
// three structures can never diverge, per the spec's resource policy.
type ArtLRU struct {
	mu       sync.Mutex
	capacity int

	items    map[model.DataRef]model.AlbumArt
	elements map[model.DataRef]*list.Element // -> queue node holding the key
	queue    *list.List                      // FIFO of model.DataRef, head = oldest
	used     map[model.DataRef]struct{}

	hits   int64
	misses int64
}

// NewArtLRU builds an ArtLRU with the given capacity, which must be >= 1.
func NewArtLRU(capacity int) (*ArtLRU, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("cache: capacity must be >= 1, got %d", capacity)
	}
	return &ArtLRU{
		capacity: capacity,
		items:    make(map[model.DataRef]model.AlbumArt),
		elements: make(map[model.DataRef]*list.Element),
		queue:    list.New(),
		used:     make(map[model.DataRef]struct{}),
	}, nil
}

// Get looks up key, marking it used (giving it a second chance against
// eviction) if found.
func (c *ArtLRU) Get(key model.DataRef) (model.AlbumArt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		c.misses++
		return model.AlbumArt{}, false
	}
	c.used[key] = struct{}{}
	c.hits++
	return v, true
}

// Insert adds or updates key, evicting entries until there is room.
func (c *ArtLRU) Insert(key model.DataRef, value model.AlbumArt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; exists {
		c.items[key] = value
		return
	}
	for len(c.items) >= c.capacity {
		if !c.evictLocked() {
			break // nothing left to evict; capacity <= 0 can't happen post-construction
		}
	}
	c.items[key] = value
	c.elements[key] = c.queue.PushBack(key)
}

// evictLocked performs one clock pass: pop the head of the queue; if it was
// marked used, give it a second chance (clear the mark, re-queue at the
// back) and continue; otherwise remove it from the cache and stop. Returns
// false only if the queue is empty.
func (c *ArtLRU) evictLocked() bool {
	for {
		front := c.queue.Front()
		if front == nil {
			return false
		}
		key := front.Value.(model.DataRef)
		c.queue.Remove(front)
		if _, wasUsed := c.used[key]; wasUsed {
			delete(c.used, key)
			c.elements[key] = c.queue.PushBack(key)
			continue
		}
		delete(c.items, key)
		delete(c.elements, key)
		return true
	}
}

// Resize changes the capacity, evicting eagerly if shrinking. Rejects n < 1.
func (c *ArtLRU) Resize(n int) error {
	if n < 1 {
		return fmt.Errorf("cache: capacity must be >= 1, got %d", n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.items) > n {
		if !c.evictLocked() {
			break
		}
	}
	c.capacity = n
	return nil
}

// Remove deletes key from every internal structure without going through
// the clock algorithm; used for targeted eviction (unmount, device loss).
func (c *ArtLRU) Remove(key model.DataRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

func (c *ArtLRU) removeLocked(key model.DataRef) {
	if el, ok := c.elements[key]; ok {
		c.queue.Remove(el)
		delete(c.elements, key)
	}
	delete(c.items, key)
	delete(c.used, key)
}

// EvictSlot removes every entry whose DataRef.Slot matches slot, returning
// the number removed.
func (c *ArtLRU) EvictSlot(slot model.SlotRef) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []model.DataRef
	for k := range c.items {
		if k.Slot == slot {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		c.removeLocked(k)
	}
	return len(keys)
}

// EvictPlayer removes every entry belonging to a player's slots.
func (c *ArtLRU) EvictPlayer(player int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []model.DataRef
	for k := range c.items {
		if k.Slot.Player == player {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		c.removeLocked(k)
	}
	return len(keys)
}

// Stats reports the cache's current occupancy and hit rate.
type Stats struct {
	Size     int
	Capacity int
	Hits     int64
	Misses   int64
}

// HitRate returns hits / (hits+misses) as a percentage, or 0 with no traffic.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Stats snapshots the cache's size/capacity/hit-rate counters.
func (c *ArtLRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), Capacity: c.capacity, Hits: c.hits, Misses: c.misses}
}

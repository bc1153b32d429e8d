// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package notify implements the bounded-channel delivery abstraction used
// for both in-process listener fan-out and the optional debug websocket
// feed. It generalizes the teacher's websocket Hub (register/unregister
// channels plus a single broadcast loop) into a typed, reusable Notifier
// so finders don't need to know whether a listener is an in-process
// callback or a remote observer.
package notify

import (
	"sync"

	"github.com/deepspin/trackcore/internal/logging"
)

// Listener receives notifications of type T. Implementations must not
// block significantly: Notifier calls listeners one after another on the
// notifying goroutine, so a slow listener delays every listener after it.
type Listener[T any] func(T)

// Notifier fans a value out to every registered listener, catching and
// logging any panic a listener raises so one faulty listener can't take
// down dispatch for the others (the "listener fault" failure mode in the
// spec's failure semantics table).
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[int]Listener[T]
	nextID    int
}

// New constructs an empty Notifier.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{listeners: make(map[int]Listener[T])}
}

// Subscription identifies a registered listener so it can be removed later.
type Subscription int

// Add registers l and returns a Subscription to later Remove it.
func (n *Notifier[T]) Add(l Listener[T]) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	return Subscription(id)
}

// Remove unregisters the listener identified by sub, if still present.
func (n *Notifier[T]) Remove(sub Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, int(sub))
}

// Len reports how many listeners are currently registered.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Notify delivers value to every registered listener synchronously, in
// registration order is not guaranteed (map iteration), catching panics
// per listener so a fault in one does not stop delivery to the rest.
func (n *Notifier[T]) Notify(value T) {
	n.mu.RLock()
	snapshot := make([]Listener[T], 0, len(n.listeners))
	for _, l := range n.listeners {
		snapshot = append(snapshot, l)
	}
	n.mu.RUnlock()

	for _, l := range snapshot {
		n.deliverOne(l, value)
	}
}

func (n *Notifier[T]) deliverOne(l Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error().Interface("panic", r).Msg("notify: listener fault during dispatch")
		}
	}()
	l(value)
}

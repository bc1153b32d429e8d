// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package finders

import "github.com/deepspin/trackcore/internal/notify"

// LifecycleEvent announces that a named finder has started or stopped. Name
// matches the string a finder is registered under in the supervisor tree.
type LifecycleEvent struct {
	Name    string
	Started bool
}

// LifecycleBus fans out Started/Stopped transitions between finders so a
// finder that depends on another (every asset finder depends on the
// metadata finder having a live track to report against) can shut itself
// down when its dependency stops, rather than spinning against a cache that
// will never be written to again.
type LifecycleBus struct {
	notifier *notify.Notifier[LifecycleEvent]
}

// NewLifecycleBus builds an empty lifecycle bus.
func NewLifecycleBus() *LifecycleBus {
	return &LifecycleBus{notifier: notify.New[LifecycleEvent]()}
}

// Publish announces a lifecycle transition to every subscriber.
func (b *LifecycleBus) Publish(event LifecycleEvent) {
	b.notifier.Notify(event)
}

// Subscribe registers l for every lifecycle transition on the bus.
func (b *LifecycleBus) Subscribe(l notify.Listener[LifecycleEvent]) notify.Subscription {
	return b.notifier.Add(l)
}

// Unsubscribe removes a previously registered listener.
func (b *LifecycleBus) Unsubscribe(sub notify.Subscription) {
	b.notifier.Remove(sub)
}

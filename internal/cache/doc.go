// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package cache implements the two caching tiers described by the
// coordination core: a concurrent hot cache keyed on (player, hot cue) and
// asset kind, and a bounded clock/second-chance cache used only for
// shareable album art. Both are purpose-built for the access pattern in the
// spec rather than borrowed from a general-purpose library, per the design
// note preferring a specified eviction algorithm over
// ConcurrentHashMap.newSetFromMap-style ad hoc eviction.
package cache

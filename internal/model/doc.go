// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package model holds the value types shared by every other package in the
// coordination core: deck, slot, and data references, the track metadata and
// cue list structures resolved for a loaded track, and the beat grid and
// track-position types used by the extrapolator.
//
// Everything in this package is an immutable value type once constructed;
// no type here owns a mutex or a goroutine. Mutable state (caches, finder
// state machines, extrapolator slots) lives in the packages that use these
// values.
package model

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package resolver

import (
	"context"

	"github.com/deepspin/trackcore/internal/model"
)

// MetadataProvider is an external or internal source of resolved assets for
// a given piece of media. Implementations may block on network or disk I/O;
// ctx bounds how long the resolver is willing to wait. A provider that
// cannot answer a kind returns ok=false rather than an error — "I don't have
// this" is not a failure. tag is only meaningful for AssetAnalysisTag; every
// other kind should ignore it.
type MetadataProvider interface {
	// SupportedMedia returns the MediaDetails.Key() values this provider can
	// answer for. An empty slice registers the provider as universal: it is
	// consulted for every piece of media, after every media-scoped provider.
	SupportedMedia() []string

	// Resolve attempts to answer asset kind for track/media. Returns
	// ok=false if this provider has nothing for that (kind, media) pair.
	Resolve(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, bool)
}

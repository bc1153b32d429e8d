// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package resolver

import (
	"context"
	"sync"

	"github.com/deepspin/trackcore/internal/model"
)

// universalKey is the empty-string key under which providers with no
// SupportedMedia entries are registered.
const universalKey = ""

// Registry is the process-wide map from a MediaDetails hash key to the
// providers that can answer for it, plus a separate universal set consulted
// after every media-scoped provider has had a turn. It is owned by the
// metadata finder but shared read-only with every other asset finder.
type Registry struct {
	mu     sync.RWMutex
	scoped map[string][]MetadataProvider
	univ   []MetadataProvider
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{scoped: make(map[string][]MetadataProvider)}
}

// AddProvider registers p under every key in p.SupportedMedia(), or as
// universal if that list is empty.
func (r *Registry) AddProvider(p MetadataProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := p.SupportedMedia()
	if len(keys) == 0 {
		r.univ = append(r.univ, p)
		return
	}
	for _, k := range keys {
		if k == universalKey {
			r.univ = append(r.univ, p)
			continue
		}
		r.scoped[k] = append(r.scoped[k], p)
	}
}

// RemoveProvider drops p from every set it was registered under, by
// identity. Used when a provider backed by a removable medium (e.g. an
// archive on a USB drive) goes away.
func (r *Registry) RemoveProvider(p MetadataProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.univ = removeProvider(r.univ, p)
	for k, list := range r.scoped {
		filtered := removeProvider(list, p)
		if len(filtered) == 0 {
			delete(r.scoped, k)
		} else {
			r.scoped[k] = filtered
		}
	}
}

func removeProvider(list []MetadataProvider, p MetadataProvider) []MetadataProvider {
	out := list[:0:0]
	for _, existing := range list {
		if existing != p {
			out = append(out, existing)
		}
	}
	return out
}

// Resolve walks the chain described in the resolver's provider-chain step:
// every provider scoped to media's hash key, then every universal provider,
// returning the first non-null answer.
func (r *Registry) Resolve(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, bool) {
	r.mu.RLock()
	scoped := append([]MetadataProvider(nil), r.scoped[media.Key()]...)
	univ := append([]MetadataProvider(nil), r.univ...)
	r.mu.RUnlock()

	for _, p := range scoped {
		if v, ok := p.Resolve(ctx, track, kind, media, tag); ok {
			return v, true
		}
	}
	for _, p := range univ {
		if v, ok := p.Resolve(ctx, track, kind, media, tag); ok {
			return v, true
		}
	}
	return nil, false
}

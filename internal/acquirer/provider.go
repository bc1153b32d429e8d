// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import (
	"context"
	"sync"

	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/notify"
	"github.com/deepspin/trackcore/internal/resolver"
)

// Self-consistent analysis-file section tags this core reads beat grid, cue
// list, and waveform payloads from. original_source held no recoverable
// reference for the real on-disk tag names, so these are an invented but
// internally consistent vocabulary: the live dbserver client
// (internal/dbserver) answers with the same tags it reads here.
const (
	tagBeatGrid = "PQTZ"

	tagWaveformPreviewBlue = "PWAV"
	tagWaveformPreviewRGB  = "PWV3"
	tagWaveformPreview3B   = "PWV5"

	tagWaveformDetailBlue = "PWV2"
	tagWaveformDetailRGB  = "PWV4"
	tagWaveformDetail3B   = "PWV6"
)

func waveformTag(kind model.AssetKind, variant model.WaveformVariant) string {
	if kind == model.AssetWaveformDetail {
		switch variant {
		case model.WaveformRGB:
			return tagWaveformDetailRGB
		case model.WaveformThreeBand:
			return tagWaveformDetail3B
		default:
			return tagWaveformDetailBlue
		}
	}
	switch variant {
	case model.WaveformRGB:
		return tagWaveformPreviewRGB
	case model.WaveformThreeBand:
		return tagWaveformPreview3B
	default:
		return tagWaveformPreviewBlue
	}
}

// DatabaseProvider answers resolver queries for a single mounted slot out of
// its acquired export database and analysis files, implementing
// resolver.MetadataProvider. It registers universally rather than under any
// media hash key (see SupportedMedia) and refuses anything it doesn't
// recognize as belonging to its own slot's database.
type DatabaseProvider struct {
	acq               *Acquirer
	slot              model.SlotRef
	db                Database
	preferredWaveform model.WaveformVariant
}

// NewDatabaseProvider builds a provider backed by db for slot, preferring
// preferredWaveform when a waveform asset has to choose between variants.
func NewDatabaseProvider(acq *Acquirer, slot model.SlotRef, db Database, preferredWaveform model.WaveformVariant) *DatabaseProvider {
	return &DatabaseProvider{acq: acq, slot: slot, db: db, preferredWaveform: preferredWaveform}
}

// SupportedMedia reports no scoped keys: MediaDetails.HashKey is opaque
// media-descriptor data this core never synthesizes, so a provider cannot
// register under it in advance. The provider instead registers universally
// and relies on hasTrack to reject anything outside its own slot.
func (p *DatabaseProvider) SupportedMedia() []string {
	return nil
}

func (p *DatabaseProvider) hasTrack(track model.DataRef) bool {
	if track.Slot != p.slot {
		return false
	}
	for _, id := range p.db.TrackRekordboxIDs() {
		if id == track.RekordboxID {
			return true
		}
	}
	return false
}

// Resolve answers kind for track out of the acquired analysis file, if the
// track belongs to this provider's slot and an analysis file can be
// acquired for it.
func (p *DatabaseProvider) Resolve(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, bool) {
	if !p.hasTrack(track) {
		return nil, false
	}
	switch kind {
	case model.AssetBeatGrid:
		return p.resolveBeatGrid(ctx, track)
	case model.AssetCueList:
		return p.resolveCueList(ctx, track)
	case model.AssetWaveformPreview, model.AssetWaveformDetail:
		return p.resolveWaveform(ctx, track, kind)
	case model.AssetAnalysisTag:
		return p.resolveTag(ctx, track, tag)
	default:
		return nil, false
	}
}

func (p *DatabaseProvider) resolveBeatGrid(ctx context.Context, track model.DataRef) (any, bool) {
	body, ok := p.sectionFor(ctx, track, ".DAT", tagBeatGrid)
	if !ok {
		return nil, false
	}
	grid, err := model.DecodeBeatGrid(body)
	if err != nil {
		return nil, false
	}
	return grid, true
}

func (p *DatabaseProvider) resolveCueList(ctx context.Context, track model.DataRef) (any, bool) {
	file, err := p.acq.AcquireAnalysisFile(ctx, track, ".DAT")
	if err != nil {
		return nil, false
	}
	return model.BuildCueList(file.Sections()), true
}

func (p *DatabaseProvider) resolveWaveform(ctx context.Context, track model.DataRef, kind model.AssetKind) (any, bool) {
	file, err := p.acq.AcquireAnalysisFile(ctx, track, ".EXT")
	if err != nil {
		return nil, false
	}
	sections := file.Sections()

	var body []byte
	variant, ok := model.PreferredVariant(p.preferredWaveform, func(v model.WaveformVariant) bool {
		b, present := sections[waveformTag(kind, v)]
		if !present {
			return false
		}
		body = b
		return true
	})
	if !ok {
		return nil, false
	}
	return model.Waveform{Ref: track, Variant: variant, Data: body}, true
}

func (p *DatabaseProvider) resolveTag(ctx context.Context, track model.DataRef, tag model.TagKey) (any, bool) {
	body, ok := p.sectionFor(ctx, track, tag.FileExt, tag.TypeTag)
	if !ok {
		return nil, false
	}
	return model.TaggedSection{FileExt: tag.FileExt, TypeTag: tag.TypeTag, Body: body}, true
}

func (p *DatabaseProvider) sectionFor(ctx context.Context, track model.DataRef, ext, typeTag string) ([]byte, bool) {
	file, err := p.acq.AcquireAnalysisFile(ctx, track, ext)
	if err != nil {
		return nil, false
	}
	body, ok := file.Sections()[typeTag]
	return body, ok
}

// RegistryBridge keeps a resolver.Registry's provider set synchronized with
// an Acquirer's currently mounted slots: a new DatabaseProvider is
// registered the moment a slot's export database finishes downloading, and
// removed the moment that slot unmounts.
type RegistryBridge struct {
	acq               *Acquirer
	registry          *resolver.Registry
	preferredWaveform model.WaveformVariant

	mountedSub   notify.Subscription
	unmountedSub notify.Subscription

	mu        sync.Mutex
	providers map[model.SlotRef]*DatabaseProvider
}

// NewRegistryBridge subscribes to acq's Mounted/Unmounted events and keeps
// registry's provider set in sync for as long as the bridge exists. There is
// no explicit start; subscription happens in the constructor, mirroring the
// notify.Hub pattern of registering before any event can be missed.
func NewRegistryBridge(acq *Acquirer, registry *resolver.Registry, preferredWaveform model.WaveformVariant) *RegistryBridge {
	b := &RegistryBridge{
		acq:               acq,
		registry:          registry,
		preferredWaveform: preferredWaveform,
		providers:         make(map[model.SlotRef]*DatabaseProvider),
	}
	b.mountedSub = acq.Mounted.Add(b.onMounted)
	b.unmountedSub = acq.Unmounted.Add(b.onUnmounted)
	return b
}

func (b *RegistryBridge) onMounted(ev MountedEvent) {
	provider := NewDatabaseProvider(b.acq, ev.Slot.Slot, ev.Slot.DB, b.preferredWaveform)

	b.mu.Lock()
	b.providers[ev.Slot.Slot] = provider
	b.mu.Unlock()

	b.registry.AddProvider(provider)
}

func (b *RegistryBridge) onUnmounted(slot model.SlotRef) {
	b.mu.Lock()
	provider, ok := b.providers[slot]
	delete(b.providers, slot)
	b.mu.Unlock()

	if ok {
		b.registry.RemoveProvider(provider)
	}
}

// Close unsubscribes the bridge from the acquirer's lifecycle notifiers.
func (b *RegistryBridge) Close() {
	b.acq.Mounted.Remove(b.mountedSub)
	b.acq.Unmounted.Remove(b.unmountedSub)
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import (
	"fmt"
	"strings"
)

// AssetKind identifies which per-track asset a finder, the hot cache, or
// the resolver is working with.
type AssetKind int

const (
	AssetMetadata AssetKind = iota
	AssetAlbumArt
	AssetBeatGrid
	AssetCueList
	AssetWaveformPreview
	AssetWaveformDetail
	// AssetAnalysisTag covers arbitrary tagged sections keyed by
	// (fileExt, typeTag) rather than by a fixed kind; the analysis-tag
	// finder tracks one instance of this kind per registered pair.
	AssetAnalysisTag
)

func (k AssetKind) String() string {
	switch k {
	case AssetMetadata:
		return "metadata"
	case AssetAlbumArt:
		return "album-art"
	case AssetBeatGrid:
		return "beat-grid"
	case AssetCueList:
		return "cue-list"
	case AssetWaveformPreview:
		return "waveform-preview"
	case AssetWaveformDetail:
		return "waveform-detail"
	case AssetAnalysisTag:
		return "analysis-tag"
	default:
		return "unknown"
	}
}

// TrackType distinguishes how a loaded track's data was sourced; only
// rekordbox tracks carry the full asset set this core resolves.
type TrackType int

const (
	TrackTypeUnknown TrackType = iota
	TrackTypeRekordbox
	TrackTypeUnanalyzed
	TrackTypeCD
)

// IsRekordbox reports whether this track type is eligible for asset
// resolution at all; non-rekordbox tracks always clear the deck.
func (t TrackType) IsRekordbox() bool {
	return t == TrackTypeRekordbox
}

// TrackMetadata is the immutable, resolved metadata for a loaded track.
type TrackMetadata struct {
	Track     DataRef
	TrackType TrackType
	Duration  int64 // milliseconds
	ArtworkID int
	CueList   *CueList

	Title  string
	Artist string
	Album  string
	Genre  string
	BPM    float64
	Key    string
	Rating int
}

// AlbumArt is the image bytes for a track's artwork, identified by the
// DataRef that named its artwork id within a slot.
type AlbumArt struct {
	Ref   DataRef
	Bytes []byte
}

// WaveformVariant selects which of rekordbox's historical waveform
// encodings a preview or detail payload uses.
type WaveformVariant int

const (
	WaveformBlue WaveformVariant = iota
	WaveformRGB
	WaveformThreeBand
)

func (v WaveformVariant) String() string {
	switch v {
	case WaveformBlue:
		return "blue"
	case WaveformRGB:
		return "rgb"
	case WaveformThreeBand:
		return "3-band"
	default:
		return "unknown"
	}
}

// bytesPerFrame gives the raw sample stride of each variant, used to derive
// a frame count from a byte slice without reinterpreting its contents.
func (v WaveformVariant) bytesPerFrame() int {
	switch v {
	case WaveformBlue:
		return 1
	case WaveformRGB:
		return 2
	case WaveformThreeBand:
		return 6
	default:
		return 1
	}
}

// PreferredVariant walks the source-preference fallback chain: try the
// caller's preferred variant first, then RGB, then the monochrome blue
// encoding every player supports. available is called at most once per
// distinct variant in that order and should report whether a payload for
// the variant could actually be obtained; PreferredVariant returns the
// first variant available accepts, or ok=false if none are.
func PreferredVariant(preferred WaveformVariant, available func(WaveformVariant) bool) (WaveformVariant, bool) {
	tried := make(map[WaveformVariant]bool, 3)
	for _, v := range [...]WaveformVariant{preferred, WaveformRGB, WaveformBlue} {
		if tried[v] {
			continue
		}
		tried[v] = true
		if available(v) {
			return v, true
		}
	}
	return 0, false
}

// ParseWaveformVariant parses the String() form of a WaveformVariant,
// case-insensitively, for configuration loading.
func ParseWaveformVariant(s string) (WaveformVariant, error) {
	switch strings.ToLower(s) {
	case "blue":
		return WaveformBlue, nil
	case "rgb":
		return WaveformRGB, nil
	case "3-band", "threeband", "three-band":
		return WaveformThreeBand, nil
	default:
		return WaveformBlue, fmt.Errorf("model: unknown waveform variant %q", s)
	}
}

// Waveform is a preview or detail waveform payload of a given variant.
type Waveform struct {
	Ref     DataRef
	Variant WaveformVariant
	Data    []byte
}

// FrameCount derives the number of waveform frames from the variant and the
// payload length; the coordination core never parses frame contents itself.
func (w Waveform) FrameCount() int {
	bpf := w.Variant.bytesPerFrame()
	if bpf <= 0 {
		return 0
	}
	return len(w.Data) / bpf
}

// TaggedSection is one section of an analysis file's tagged-section format:
// a four-character type tag plus its raw body, as resolved for one of the
// file extensions (.DAT, .EXT, .2EX) rekordbox writes.
type TaggedSection struct {
	FileExt string
	TypeTag string
	Body    []byte
}

// Key returns the (fileExt, typeTag) pair this section is cached under in
// the hot cache's nested analysis-tag map.
func (s TaggedSection) Key() TagKey {
	return TagKey{FileExt: s.FileExt, TypeTag: s.TypeTag}
}

// TagKey is the structured key for analysis-tag lookups: a (fileExt,
// typeTag) pair. Using a struct rather than a concatenated string sidesteps
// the ambiguity noted in the spec's open questions about type tags that
// might themselves contain '.'.
type TagKey struct {
	FileExt string
	TypeTag string
}

func (k TagKey) String() string {
	return fmt.Sprintf("%s%s", k.TypeTag, k.FileExt)
}

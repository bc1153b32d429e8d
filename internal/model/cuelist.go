// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import (
	"encoding/binary"
	"sort"
	"unicode/utf16"
)

// Color is a resolved RGB cue-point color, carried either from an extended
// analysis tag or from rekordbox's own palette.
type Color struct {
	Red, Green, Blue uint8
}

// CueEntry is a single hot cue or memory point in a track's cue list.
type CueEntry struct {
	// HotCueNumber is 0 for a memory point, 1..N for a hot cue.
	HotCueNumber int
	IsLoop       bool

	CuePosition int64 // sample-domain position, increasing with CueTimeMs
	CueTimeMs   int64

	LoopPosition int64
	LoopTimeMs   int64

	Comment string
	ColorID int

	EmbeddedColor  *Color
	RekordboxColor *Color
}

// IsMemoryPoint reports whether this entry is a plain memory point rather
// than a hot cue.
func (e CueEntry) IsMemoryPoint() bool {
	return e.HotCueNumber == 0
}

// CueList is the canonically ordered sequence of cue and memory-point
// entries resolved for a track, plus the raw tag buffers it was built from
// (kept only so a round trip through the original encoding reproduces the
// same entries; trackcore never reinterprets them).
type CueList struct {
	Entries []CueEntry

	RawCueTag         []byte
	RawCueExtendedTag []byte
}

// NewCueList sorts entries into canonical order and returns a CueList.
// Canonical order is ascending CuePosition; entries that share a position
// are ordered with every hot cue after every memory point at that position,
// so rendering draws the hot-cue marker on top.
func NewCueList(entries []CueEntry, rawCue, rawCueExt []byte) *CueList {
	out := make([]CueEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CuePosition != out[j].CuePosition {
			return out[i].CuePosition < out[j].CuePosition
		}
		return out[i].IsMemoryPoint() && !out[j].IsMemoryPoint()
	})
	return &CueList{Entries: out, RawCueTag: rawCue, RawCueExtendedTag: rawCueExt}
}

// tagCueListLegacy and tagCueListExtended are the analysis-file section
// type tags BuildCueList reads from, per the extended-tag-takes-precedence
// rule: a track analyzed since the extended format shipped carries both,
// and only the extended one encodes comments and per-entry colors.
const (
	tagCueListLegacy   = "PCOB"
	tagCueListExtended = "PCO2"
)

// legacyCueEntrySize is the fixed per-entry width of the legacy cue tag:
// hot cue number (2 bytes), loop flag (1 byte), color id (1 byte), cue
// time ms (4 bytes), loop time ms (4 bytes, 0 when not a loop).
const legacyCueEntrySize = 12

// BuildCueList converts an analysis file's tagged sections into a CueList,
// preferring the extended cue tag over the legacy one when both are
// present. Returns an empty, non-nil CueList if neither tag is present.
func BuildCueList(sections map[string][]byte) *CueList {
	if ext, ok := sections[tagCueListExtended]; ok {
		return NewCueList(parseExtendedCueEntries(ext), sections[tagCueListLegacy], ext)
	}
	if legacy, ok := sections[tagCueListLegacy]; ok {
		return NewCueList(parseLegacyCueEntries(legacy), legacy, nil)
	}
	return NewCueList(nil, nil, nil)
}

func parseLegacyCueEntries(data []byte) []CueEntry {
	var entries []CueEntry
	for off := 0; off+legacyCueEntrySize <= len(data); off += legacyCueEntrySize {
		entries = append(entries, decodeCueHeader(data[off:off+legacyCueEntrySize]))
	}
	return entries
}

// decodeCueHeader decodes the 12-byte header shared by both the legacy and
// extended cue tag encodings.
func decodeCueHeader(hdr []byte) CueEntry {
	isLoop := hdr[2] != 0
	cueMs := int64(binary.BigEndian.Uint32(hdr[4:8]))
	loopMs := int64(binary.BigEndian.Uint32(hdr[8:12]))
	entry := CueEntry{
		HotCueNumber: int(binary.BigEndian.Uint16(hdr[0:2])),
		IsLoop:       isLoop,
		CuePosition:  cueMs,
		CueTimeMs:    cueMs,
		ColorID:      int(hdr[3]),
	}
	if isLoop {
		entry.LoopPosition = loopMs
		entry.LoopTimeMs = loopMs
	}
	return entry
}

// parseExtendedCueEntries decodes the extended cue tag's variable-length
// entries: the same 12-byte header as the legacy tag, then a UTF-16LE
// comment (uint16 char count prefix), then two trailing 4-byte color
// fields (presence byte, red, green, blue) for the embedded and rekordbox
// colors respectively.
func parseExtendedCueEntries(data []byte) []CueEntry {
	var entries []CueEntry
	off := 0
	for off+legacyCueEntrySize <= len(data) {
		entry := decodeCueHeader(data[off : off+legacyCueEntrySize])
		off += legacyCueEntrySize

		if off+2 > len(data) {
			entries = append(entries, entry)
			break
		}
		commentChars := int(binary.BigEndian.Uint16(data[off : off+2]))
		off += 2
		commentEnd := off + commentChars*2
		if commentEnd > len(data) {
			entries = append(entries, entry)
			break
		}
		entry.Comment = decodeUTF16LE(data[off:commentEnd])
		off = commentEnd

		if c, n := decodeTrailingColor(data, off); n > 0 {
			entry.EmbeddedColor = c
			off += n
		}
		if c, n := decodeTrailingColor(data, off); n > 0 {
			entry.RekordboxColor = c
			off += n
		}

		entries = append(entries, entry)
	}
	return entries
}

// decodeTrailingColor reads a 4-byte (presence, red, green, blue) field at
// off, returning the number of bytes consumed (0 if out of bounds). A zero
// presence byte means "no color here" but still consumes the field.
func decodeTrailingColor(data []byte, off int) (*Color, int) {
	if off+4 > len(data) {
		return nil, 0
	}
	if data[off] == 0 {
		return nil, 4
	}
	return &Color{Red: data[off+1], Green: data[off+2], Blue: data[off+3]}, 4
}

func decodeUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units))
}

// HotCueNumbers returns the distinct hot-cue numbers present in the list,
// the fan-out set a resolver hit must be written to in the hot cache.
func (c *CueList) HotCueNumbers() []int {
	if c == nil {
		return nil
	}
	var nums []int
	for _, e := range c.Entries {
		if !e.IsMemoryPoint() {
			nums = append(nums, e.HotCueNumber)
		}
	}
	return nums
}

// EntryAtOrBefore returns the last entry whose CuePosition is <= pos, using
// binary search over the canonically sorted entries, or false if pos is
// before every entry.
func (c *CueList) EntryAtOrBefore(pos int64) (CueEntry, bool) {
	if c == nil || len(c.Entries) == 0 {
		return CueEntry{}, false
	}
	i := sort.Search(len(c.Entries), func(i int) bool {
		return c.Entries[i].CuePosition > pos
	})
	if i == 0 {
		return CueEntry{}, false
	}
	return c.Entries[i-1], true
}

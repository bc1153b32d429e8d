// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import "testing"

func TestCueListOrderingHotCuesAfterMemoryPoints(t *testing.T) {
	entries := []CueEntry{
		{HotCueNumber: 1, CuePosition: 1000},
		{HotCueNumber: 0, CuePosition: 1000},
		{HotCueNumber: 0, CuePosition: 500},
		{HotCueNumber: 2, CuePosition: 1000},
	}
	cl := NewCueList(entries, nil, nil)

	if len(cl.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(cl.Entries))
	}
	for i := 1; i < len(cl.Entries); i++ {
		if cl.Entries[i].CuePosition < cl.Entries[i-1].CuePosition {
			t.Fatalf("entries not sorted ascending: %+v", cl.Entries)
		}
	}
	// Within position 1000, the memory point (index 1 here) must precede
	// every hot cue sharing that position.
	var sawMemoryAt1000, sawHotAt1000Before bool
	for _, e := range cl.Entries {
		if e.CuePosition != 1000 {
			continue
		}
		if e.IsMemoryPoint() {
			sawMemoryAt1000 = true
			if sawHotAt1000Before {
				t.Fatalf("memory point at 1000 appeared after a hot cue")
			}
		} else {
			sawHotAt1000Before = true
		}
	}
	if !sawMemoryAt1000 {
		t.Fatal("expected a memory point at position 1000")
	}
}

func TestCueListHotCueNumbers(t *testing.T) {
	cl := NewCueList([]CueEntry{
		{HotCueNumber: 0, CuePosition: 0},
		{HotCueNumber: 1, CuePosition: 10},
		{HotCueNumber: 3, CuePosition: 20},
	}, nil, nil)
	got := cl.HotCueNumbers()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected hot cue numbers: %v", got)
	}
}

func TestCueListEntryAtOrBefore(t *testing.T) {
	cl := NewCueList([]CueEntry{
		{CuePosition: 0}, {CuePosition: 100}, {CuePosition: 200},
	}, nil, nil)
	if _, ok := cl.EntryAtOrBefore(-1); ok {
		t.Fatal("expected no entry before the first position")
	}
	e, ok := cl.EntryAtOrBefore(150)
	if !ok || e.CuePosition != 100 {
		t.Fatalf("expected entry at 100, got %+v ok=%v", e, ok)
	}
}

func TestBeatGridTimeForBeat(t *testing.T) {
	bg := NewBeatGrid([]int64{500, 1000, 1500})
	if bg.BeatCount() != 3 {
		t.Fatalf("expected 3 beats, got %d", bg.BeatCount())
	}
	ms, err := bg.TimeForBeat(2)
	if err != nil || ms != 1000 {
		t.Fatalf("expected beat 2 at 1000ms, got %d err=%v", ms, err)
	}
	if _, err := bg.TimeForBeat(0); err == nil {
		t.Fatal("expected error for beat 0")
	}
	if _, err := bg.TimeForBeat(4); err == nil {
		t.Fatal("expected error for out-of-range beat")
	}
}

func TestInterpolateMonotoneWhilePlayingForward(t *testing.T) {
	bg := NewBeatGrid([]int64{0, 500})
	base := TrackPositionUpdate{
		TimestampNs: 1_000_000_000,
		PositionMs:  10_000,
		BeatNumber:  10,
		Pitch:       1.0,
		Playing:     true,
		BeatGrid:    bg,
	}
	p1 := base.Interpolate(1_500_000_000)
	p2 := base.Interpolate(2_000_000_000)
	if p2 < p1 {
		t.Fatalf("interpolation not monotone: p1=%d p2=%d", p1, p2)
	}
}

func TestInterpolateSeedScenarioBeatThenStatus(t *testing.T) {
	bg := NewBeatGrid([]int64{0, 10_000, 10_500})
	state := TrackPositionUpdate{
		TimestampNs: 2_000_000_000,
		PositionMs:  10_500,
		BeatNumber:  11,
		Definitive:  true,
		Playing:     true,
		Pitch:       1.0,
		BeatGrid:    bg,
	}
	got := state.Interpolate(2_500_000_000)
	if got != 11_000 {
		t.Fatalf("expected predicted position 11000ms, got %d", got)
	}
}

func TestInterpolateNotPlayingHoldsPosition(t *testing.T) {
	state := TrackPositionUpdate{TimestampNs: 0, PositionMs: 5000, Playing: false, Pitch: 1.0}
	if got := state.Interpolate(10_000_000_000); got != 5000 {
		t.Fatalf("expected stationary position 5000, got %d", got)
	}
}

func TestInterpolateReverse(t *testing.T) {
	state := TrackPositionUpdate{TimestampNs: 0, PositionMs: 5000, Playing: true, Reverse: true, Pitch: 1.0}
	got := state.Interpolate(1_000_000_000) // 1000ms elapsed
	if got != 4000 {
		t.Fatalf("expected 4000 after 1s reverse playback, got %d", got)
	}
}

func TestWaveformFrameCount(t *testing.T) {
	w := Waveform{Variant: WaveformRGB, Data: make([]byte, 20)}
	if w.FrameCount() != 10 {
		t.Fatalf("expected 10 frames, got %d", w.FrameCount())
	}
}

func TestSlotNFSMountPath(t *testing.T) {
	if p, ok := SlotSD.NFSMountPath(); !ok || p != "/B/" {
		t.Fatalf("expected SD -> /B/, got %q ok=%v", p, ok)
	}
	if p, ok := SlotUSB.NFSMountPath(); !ok || p != "/C/" {
		t.Fatalf("expected USB -> /C/, got %q ok=%v", p, ok)
	}
	if _, ok := SlotCD.NFSMountPath(); ok {
		t.Fatal("CD slot should have no NFS mount path")
	}
}

func TestTagKeyStructuredSplit(t *testing.T) {
	// Regression for the spec's open question: a type tag containing '.'
	// must not corrupt the (fileExt, typeTag) split, because the key is a
	// struct, not a concatenated string.
	k := TagKey{FileExt: ".EXT", TypeTag: "P.OB"}
	if k.String() != "P.OB.EXT" {
		t.Fatalf("unexpected rendering: %s", k.String())
	}
	other := TagKey{FileExt: "XT", TypeTag: "P.OB."}
	if k == other {
		t.Fatal("distinct structured keys must not compare equal")
	}
}

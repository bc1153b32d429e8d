// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deepspin/trackcore/internal/model"
)

type fakeDB struct{ ids []int }

func (f fakeDB) TrackRekordboxIDs() []int { return f.ids }

type fakeAnlz struct{ sections map[string][]byte }

func (f fakeAnlz) Sections() map[string][]byte { return f.sections }

type fakeFetcher struct {
	calls       int32
	failUntil   int32
	pioneerOnce bool
	triedPaths  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ int, remotePath, localPath string) error {
	atomic.AddInt32(&f.calls, 1)
	f.triedPaths = append(f.triedPaths, remotePath)
	if f.pioneerOnce && strings.HasPrefix(remotePath, "PIONEER/") && !strings.HasPrefix(remotePath, "PIONEER/USBANLZ") {
		f.pioneerOnce = false
		return &PioneerLookupError{RemotePath: remotePath}
	}
	if atomic.LoadInt32(&f.calls) <= f.failUntil {
		return errTransient
	}
	return os.WriteFile(localPath, []byte("data"), 0o600)
}

var errTransient = &transientErr{}

type transientErr struct{}

func (e *transientErr) Error() string { return "transient fetch failure" }

func newTestAcquirer(t *testing.T, fetcher FileFetcher) *Acquirer {
	t.Helper()
	scratch, err := NewScratchDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(scratch, fetcher, 3,
		func(path string) (Database, error) { return fakeDB{ids: []int{1, 2}}, nil },
		func(path string) (AnlzFile, error) { return fakeAnlz{sections: map[string][]byte{"PQTZ": {1}}}, nil },
	)
}

func TestHandleMediaDetailsMountsRekordboxSlotOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newTestAcquirer(t, fetcher)
	slot := model.SlotRef{Player: 1, Slot: model.SlotUSB}

	mounted := make(chan MountedEvent, 1)
	a.Mounted.Add(func(e MountedEvent) { mounted <- e })

	a.HandleMediaDetails(context.Background(), slot, model.TrackTypeRekordbox)
	ev := <-mounted
	if ev.Slot.Slot != slot {
		t.Fatalf("unexpected mounted slot %+v", ev.Slot)
	}
	if _, ok := a.DatabaseFor(slot); !ok {
		t.Fatal("expected database registered for slot")
	}
}

func TestHandleMediaDetailsIgnoresNonRekordboxAndCollection(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newTestAcquirer(t, fetcher)

	a.HandleMediaDetails(context.Background(), model.SlotRef{Player: 1, Slot: model.SlotUSB}, model.TrackTypeUnanalyzed)
	a.HandleMediaDetails(context.Background(), model.SlotRef{Player: 1, Slot: model.SlotCollection}, model.TrackTypeRekordbox)

	if atomic.LoadInt32(&fetcher.calls) != 0 {
		t.Fatalf("expected no fetch attempts, got %d", fetcher.calls)
	}
}

func TestFetchWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	fetcher := &fakeFetcher{failUntil: 2}
	a := newTestAcquirer(t, fetcher)
	slot := model.SlotRef{Player: 2, Slot: model.SlotSD}
	local := a.scratch.Path("retry-test")

	err := a.fetchWithRetry(context.Background(), slot, "PIONEER/rekordbox/export.pdb", local)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fetcher.calls)
	}
}

func TestHFSFallbackRetriesWithHiddenFolder(t *testing.T) {
	fetcher := &fakeFetcher{pioneerOnce: true}
	a := newTestAcquirer(t, fetcher)
	slot := model.SlotRef{Player: 3, Slot: model.SlotUSB}

	mounted := make(chan MountedEvent, 1)
	a.Mounted.Add(func(e MountedEvent) { mounted <- e })
	a.HandleMediaDetails(context.Background(), slot, model.TrackTypeRekordbox)
	<-mounted

	if !a.usesHFSFallback(slot) {
		t.Fatal("expected slot to remember HFS+ fallback after a PIONEER lookup failure")
	}
}

func TestUnmountRemovesDatabaseAndScratchFiles(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newTestAcquirer(t, fetcher)
	slot := model.SlotRef{Player: 1, Slot: model.SlotUSB}

	done := make(chan struct{})
	a.Mounted.Add(func(MountedEvent) { close(done) })
	a.HandleMediaDetails(context.Background(), slot, model.TrackTypeRekordbox)
	<-done

	a.Unmount(slot)
	if _, ok := a.DatabaseFor(slot); ok {
		t.Fatal("expected database removed after unmount")
	}
}

func TestAcquireAnalysisFileReusesExistingScratchFile(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newTestAcquirer(t, fetcher)
	track := model.DataRef{Slot: model.SlotRef{Player: 1, Slot: model.SlotUSB}, RekordboxID: 42}

	if _, err := a.AcquireAnalysisFile(context.Background(), track, ".DAT"); err != nil {
		t.Fatal(err)
	}
	firstCalls := fetcher.calls
	if _, err := a.AcquireAnalysisFile(context.Background(), track, ".DAT"); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != firstCalls {
		t.Fatalf("expected cached analysis file to skip re-fetch, calls went from %d to %d", firstCalls, fetcher.calls)
	}
}

func TestBackoffFormula(t *testing.T) {
	if d := backoff(1); d.Milliseconds() != 2000 {
		t.Fatalf("expected 2000ms, got %v", d)
	}
	if d := backoff(3); d.Milliseconds() != 6000 {
		t.Fatalf("expected capped 6000ms, got %v", d)
	}
	if d := backoff(10); d.Milliseconds() != 6000 {
		t.Fatalf("expected capped 6000ms, got %v", d)
	}
}

func TestClampRetryLimit(t *testing.T) {
	if clampRetryLimit(0) != 3 || clampRetryLimit(11) != 3 {
		t.Fatal("expected out-of-range retry limits to default to 3")
	}
	if clampRetryLimit(5) != 5 {
		t.Fatal("expected in-range retry limit to pass through")
	}
}

// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deepspin/trackcore/internal/dedupe"
	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/metrics"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/notify"
)

// MountedEvent is delivered when a slot's database finishes downloading
// and parsing successfully.
type MountedEvent struct {
	Slot SlotMount
}

// SlotMount names a mounted slot alongside the database acquired for it.
type SlotMount struct {
	Slot model.SlotRef
	DB   Database
}

// Acquirer owns the scratch directory, the per-slot mounted-database map,
// and the per-path locks guarding analysis file downloads.
type Acquirer struct {
	scratch    *ScratchDir
	fetcher    FileFetcher
	locks      *PathLocks
	inFlight   *dedupe.Set[model.SlotRef]
	parseDB    DatabaseParser
	parseAnlz  AnlzParser
	retryLimit int

	mu          sync.Mutex
	databases   map[model.SlotRef]Database
	hfsFallback map[model.SlotRef]bool
	backupAddr  map[int]string

	Mounted   *notify.Notifier[MountedEvent]
	Unmounted *notify.Notifier[model.SlotRef]
}

// New constructs an Acquirer. A retryLimit outside 1..10 is replaced by the
// default of 3 per the spec's retry configuration rule.
func New(scratch *ScratchDir, fetcher FileFetcher, retryLimit int, parseDB DatabaseParser, parseAnlz AnlzParser) *Acquirer {
	return &Acquirer{
		scratch:     scratch,
		fetcher:     fetcher,
		locks:       NewPathLocks(),
		inFlight:    dedupe.New[model.SlotRef](),
		parseDB:     parseDB,
		parseAnlz:   parseAnlz,
		retryLimit:  clampRetryLimit(retryLimit),
		databases:   make(map[model.SlotRef]Database),
		hfsFallback: make(map[model.SlotRef]bool),
		backupAddr:  make(map[int]string),
		Mounted:     notify.New[MountedEvent](),
		Unmounted:   notify.New[model.SlotRef](),
	}
}

// Serve blocks until ctx is canceled. Acquirer has no poll loop of its own —
// every download it performs is dispatched from HandleMediaDetails or
// AcquireAnalysisFile — but it still implements this so it can be supervised
// as a service in the acquisition tier like everything else.
func (a *Acquirer) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// DatabaseFor returns the database registered for slot, if any.
func (a *Acquirer) DatabaseFor(slot model.SlotRef) (Database, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	db, ok := a.databases[slot]
	return db, ok
}

// HandleMediaDetails is the trigger described in the spec's acquirer
// section: on a media-details notification for a rekordbox track on a
// non-collection slot not already owned or in flight, dispatch a worker
// that downloads and parses export.pdb.
func (a *Acquirer) HandleMediaDetails(ctx context.Context, slot model.SlotRef, trackType model.TrackType) {
	if !trackType.IsRekordbox() || slot.Slot == model.SlotCollection {
		return
	}
	if _, owned := a.DatabaseFor(slot); owned {
		return
	}
	a.inFlight.Dispatch(slot, func() {
		if err := a.mountSlot(ctx, slot); err != nil {
			logging.Logger().Warn().Err(err).Str("slot", slot.String()).Msg("acquirer: failed to mount database")
		}
	})
}

func (a *Acquirer) mountSlot(ctx context.Context, slot model.SlotRef) error {
	localPath := a.scratch.Path(slot.String() + "-export.pdb")
	remotePath := "PIONEER/rekordbox/export.pdb"

	if err := a.fetchWithFallback(ctx, slot, remotePath, localPath); err != nil {
		a.scratch.Remove(localPath)
		return err
	}

	db, err := a.parseDB(localPath)
	if err != nil {
		a.scratch.Remove(localPath)
		return fmt.Errorf("acquirer: parse export.pdb for %s: %w", slot, err)
	}

	a.mu.Lock()
	a.databases[slot] = db
	a.mu.Unlock()

	a.Mounted.Notify(MountedEvent{Slot: SlotMount{Slot: slot, DB: db}})
	return nil
}

// fetchWithFallback implements the HFS+ hidden-folder fallback rule: a
// remote path starting with "PIONEER/" that fails with PioneerLookupError
// is retried once with a leading "." prepended, and the slot is remembered
// as using the hidden folder for future reads.
func (a *Acquirer) fetchWithFallback(ctx context.Context, slot model.SlotRef, remotePath, localPath string) error {
	path := a.effectiveRemotePath(slot, remotePath)
	err := a.fetchWithRetry(ctx, slot, path, localPath)

	var pioneerErr *PioneerLookupError
	if errors.As(err, &pioneerErr) && !a.usesHFSFallback(slot) {
		a.setHFSFallback(slot, true)
		hidden := "." + remotePath
		return a.fetchWithRetry(ctx, slot, hidden, localPath)
	}
	return err
}

func (a *Acquirer) effectiveRemotePath(slot model.SlotRef, remotePath string) string {
	if a.usesHFSFallback(slot) {
		return "." + remotePath
	}
	return remotePath
}

func (a *Acquirer) usesHFSFallback(slot model.SlotRef) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hfsFallback[slot]
}

func (a *Acquirer) setHFSFallback(slot model.SlotRef, v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hfsFallback[slot] = v
}

// fetchWithRetry attempts the fetch up to retryLimit times with the
// spec's literal backoff formula between attempts.
func (a *Acquirer) fetchWithRetry(ctx context.Context, slot model.SlotRef, remotePath, localPath string) error {
	var lastErr error
	for attempt := 1; attempt <= a.retryLimit; attempt++ {
		if err := a.fetcher.Fetch(ctx, slot.Player, remotePath, localPath); err == nil {
			return nil
		} else {
			lastErr = err
			var pioneerErr *PioneerLookupError
			if errors.As(err, &pioneerErr) {
				return err // let the caller decide on HFS+ fallback, no point retrying the same path
			}
		}
		metrics.AcquirerFetchRetries.WithLabelValues(slot.String()).Inc()
		if attempt < a.retryLimit {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
	}
	return fmt.Errorf("acquirer: fetch %s failed after %d attempts: %w", remotePath, a.retryLimit, lastErr)
}

// AcquireAnalysisFile fetches (or reuses a cached copy of) a per-track
// analysis file, parses it, and returns the result. A named lock on the
// file's canonical scratch path ensures two concurrent callers for the
// same track never both download it.
func (a *Acquirer) AcquireAnalysisFile(ctx context.Context, track model.DataRef, ext string) (AnlzFile, error) {
	name := fmt.Sprintf("%s-track-%d-anlz%s", track.Slot, track.RekordboxID, strings.ToLower(ext))
	localPath := a.scratch.Path(name)

	release := a.locks.Acquire(localPath)
	defer release()

	if !a.scratch.Exists(localPath) {
		remotePath := fmt.Sprintf("PIONEER/USBANLZ/%s/ANLZ%04d%s", strings.TrimPrefix(ext, "."), track.RekordboxID, ext)
		if err := a.fetchWithFallback(ctx, track.Slot, remotePath, localPath); err != nil {
			a.scratch.Remove(localPath)
			return nil, err
		}
	}

	file, err := a.parseAnlz(localPath)
	if err != nil {
		a.scratch.Remove(localPath)
		return nil, fmt.Errorf("acquirer: parse analysis file %s: %w", localPath, err)
	}
	return file, nil
}

// BackupAddress returns the fallback network address SetBackupAddress
// recorded for player, used so a device-lost cleanup after unmount can still
// find the right connection to tear down.
func (a *Acquirer) BackupAddress(player int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr, ok := a.backupAddr[player]
	return addr, ok
}

// SetBackupAddress records addr as player's backup address at mount time.
func (a *Acquirer) SetBackupAddress(player int, addr string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backupAddr[player] = addr
}

// Unmount drops the parsed database for slot without closing it (Database
// has no Close method), removes every scratch file whose name begins with
// the slot's prefix, and forgets its HFS+ fallback state.
func (a *Acquirer) Unmount(slot model.SlotRef) {
	a.mu.Lock()
	delete(a.databases, slot)
	delete(a.hfsFallback, slot)
	a.mu.Unlock()

	removed := a.scratch.RemovePrefix(slot.String())
	logging.Logger().Info().Str("slot", slot.String()).Int("files_removed", removed).Msg("acquirer: slot unmounted")
	a.Unmounted.Notify(slot)
}

// DeviceLost performs the same cleanup as Unmount for every slot belonging
// to player, plus clears the player's backup address entry.
func (a *Acquirer) DeviceLost(player int) {
	a.mu.Lock()
	var slots []model.SlotRef
	for slot := range a.databases {
		if slot.Player == player {
			slots = append(slots, slot)
		}
	}
	delete(a.backupAddr, player)
	a.mu.Unlock()

	for _, slot := range slots {
		a.Unmount(slot)
	}
}

// Close releases the scratch directory's remaining files.
func (a *Acquirer) Close() error {
	return a.scratch.Close()
}

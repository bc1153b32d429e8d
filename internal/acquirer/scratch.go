// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package acquirer implements the database and analysis file acquisition
// path: fetching a slot's export.pdb and per-track analysis files over a
// FileFetcher transport into a scratch directory, with HFS+ hidden-folder
// fallback, retry/backoff, per-path locking against duplicate downloads,
// and cleanup on unmount or device loss.
package acquirer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/deepspin/trackcore/internal/logging"
)

// ScratchDir owns a directory of downloaded files and deletes every file it
// registered when closed, realizing the RAII/scoped-guard design note in
// place of finalizer-based cleanup.
type ScratchDir struct {
	root string

	mu    sync.Mutex
	files map[string]struct{}
}

// NewScratchDir creates (if needed) and takes ownership of root.
func NewScratchDir(root string) (*ScratchDir, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("acquirer: create scratch dir %s: %w", root, err)
	}
	return &ScratchDir{root: root, files: make(map[string]struct{})}, nil
}

// Path returns the absolute path for name within the scratch directory,
// registering it as owned so it is cleaned up on Close or RemovePrefix.
func (s *ScratchDir) Path(name string) string {
	p := filepath.Join(s.root, name)
	s.mu.Lock()
	s.files[p] = struct{}{}
	s.mu.Unlock()
	return p
}

// Forget stops tracking path without deleting it, used when a file is kept
// deliberately (e.g. to avoid re-downloading an already-parsed analysis
// file on a later cycle).
func (s *ScratchDir) Forget(path string) {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
}

// Remove deletes path immediately and stops tracking it; used on parse
// failure, per the spec's "on any parse error, the file is deleted" rule.
func (s *ScratchDir) Remove(path string) {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Logger().Warn().Err(err).Str("path", path).Msg("acquirer: failed to remove scratch file")
	}
}

// RemovePrefix deletes every tracked file whose base name begins with
// prefix, used on slot unmount/device loss.
func (s *ScratchDir) RemovePrefix(prefix string) int {
	s.mu.Lock()
	var matched []string
	for p := range s.files {
		if strings.HasPrefix(filepath.Base(p), prefix) {
			matched = append(matched, p)
		}
	}
	for _, p := range matched {
		delete(s.files, p)
	}
	s.mu.Unlock()

	for _, p := range matched {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logging.Logger().Warn().Err(err).Str("path", p).Msg("acquirer: failed to remove scratch file on unmount")
		}
	}
	return len(matched)
}

// Exists reports whether path is present on disk, used by the analysis
// cache-on-disk rule ("if the file already exists, parse it directly
// without re-fetching").
func (s *ScratchDir) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Close deletes every file this ScratchDir still owns.
func (s *ScratchDir) Close() error {
	s.mu.Lock()
	files := make([]string, 0, len(s.files))
	for p := range s.files {
		files = append(files, p)
	}
	s.files = make(map[string]struct{})
	s.mu.Unlock()

	var firstErr error
	for _, p := range files {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

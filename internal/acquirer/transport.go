// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package acquirer

import "context"

// FileFetcher is the external file-transfer transport collaborator: given a
// remote path relative to a slot's mount root, it writes the fetched bytes
// to localPath. Its wire protocol (NFS-over-the-dbserver-port, in the real
// system) is out of this core's scope.
type FileFetcher interface {
	Fetch(ctx context.Context, player int, remotePath, localPath string) error
}

// PioneerLookupError is returned by a FileFetcher when a PIONEER-prefixed
// path lookup fails in the specific way that indicates the slot uses the
// hidden HFS+ `.PIONEER` folder convention instead.
type PioneerLookupError struct {
	RemotePath string
}

func (e *PioneerLookupError) Error() string {
	return "PIONEER lookup returned status for " + e.RemotePath
}

// Database is the parsed rekordbox export database, a black box beyond the
// indexes this core needs to read track metadata references from.
type Database interface {
	// TrackRekordboxIDs returns every track id this database indexes.
	TrackRekordboxIDs() []int
}

// AnlzFile is a parsed analysis file, exposing only its tagged sections.
type AnlzFile interface {
	Sections() map[string][]byte // keyed by four-character type tag
}

// DatabaseParser turns a downloaded export.pdb file into a Database.
type DatabaseParser func(path string) (Database, error)

// AnlzParser turns a downloaded analysis file into an AnlzFile.
type AnlzParser func(path string) (AnlzFile, error)

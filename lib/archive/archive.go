// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive models the on-disk layout of a flattened backup
// archive: a root directory holding a manifest database at a fixed
// well-known name and a two-level sharded file store, where each
// stored file lives at <root>/<first-two-hex-chars>/<identifier>.
//
// The shard path computation lives here and only here. Both
// extraction (reading source shards) and migration (writing
// destination shards) go through [Archive.ShardPath], so a change to
// the sharding scheme has a single point of change.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the well-known filename of the record database
// inside an archive root.
const ManifestName = "Manifest.db"

// ErrMalformedID reports an identifier too short to shard. Wrapped by
// the error returned from [Archive.ShardPath].
var ErrMalformedID = errors.New("identifier too short for shard prefix")

// Archive is a handle on one backup archive root. It is a pure path
// calculator: constructing an Archive performs no I/O, and none of its
// methods modify anything under the root.
type Archive struct {
	root string
}

// At returns an Archive rooted at the given directory. The root is
// made absolute so that symbolic links created by extraction remain
// valid when the destination tree is relocated relative to the
// working directory.
func At(root string) (Archive, error) {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return Archive{}, fmt.Errorf("resolving archive root %s: %w", root, err)
	}
	return Archive{root: absolute}, nil
}

// Open is [At] plus existence checks: the root must be a directory
// and the manifest database must be present. Use Open for source
// archives, where a missing manifest is a structural failure the run
// should report before any file work.
func Open(root string) (Archive, error) {
	a, err := At(root)
	if err != nil {
		return Archive{}, err
	}
	info, err := os.Stat(a.root)
	if err != nil {
		return Archive{}, fmt.Errorf("opening archive %s: %w", root, err)
	}
	if !info.IsDir() {
		return Archive{}, fmt.Errorf("opening archive %s: not a directory", root)
	}
	if _, err := os.Stat(a.ManifestPath()); err != nil {
		return Archive{}, fmt.Errorf("opening archive %s: manifest database: %w", root, err)
	}
	return a, nil
}

// Root returns the absolute archive root directory.
func (a Archive) Root() string {
	return a.root
}

// ManifestPath returns the absolute path of the archive's record
// database. It does not check existence; [Open] does.
func (a Archive) ManifestPath() string {
	return filepath.Join(a.root, ManifestName)
}

// ShardPath maps a content identifier to the absolute path of its
// physical file inside this archive's flattened store: the first two
// characters of the identifier name the shard subdirectory, the full
// identifier names the file. The path is constructed without checking
// existence; whether the shard file is actually present is the
// materialization step's concern.
func (a Archive) ShardPath(fileID string) (string, error) {
	if len(fileID) < 2 {
		return "", fmt.Errorf("locating %q: %w", fileID, ErrMalformedID)
	}
	return filepath.Join(a.root, fileID[:2], fileID), nil
}

// ShardDir returns the shard subdirectory that would hold fileID,
// used by migration to create destination shards on demand.
func (a Archive) ShardDir(fileID string) (string, error) {
	if len(fileID) < 2 {
		return "", fmt.Errorf("locating %q: %w", fileID, ErrMalformedID)
	}
	return filepath.Join(a.root, fileID[:2]), nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil builds throwaway backup archives for package
// tests: a real Manifest.db (written through lib/sqlitepool, same
// code path production uses) plus shard files laid out under
// two-character prefix directories.
//
// All helpers call t.Fatal on failure rather than returning errors,
// since fixture construction failures are not recoverable.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/fileid"
	"github.com/bureau-foundation/backtree/lib/sqlitepool"
)

// ArchiveFile describes one manifest row (and, for regular files, its
// shard entry) in a fixture archive.
type ArchiveFile struct {
	Domain       string
	RelativePath string

	// Flags is the raw flags column value. Zero means regular (1).
	Flags int64

	// Content is the shard file content for regular records.
	Content []byte

	// LinkTarget, when non-empty, is recorded in the row's metadata
	// blob the way the archive format records symlink targets.
	LinkTarget string

	// FileID overrides the derived identifier. Tests use this to
	// plant malformed or mismatched identifiers.
	FileID string

	// OmitShard leaves the shard file unwritten, simulating an
	// archive whose store lost an entry.
	OmitShard bool

	// OmitMetadata leaves the metadata blob NULL.
	OmitMetadata bool
}

// manifestSchema matches the logical shape lib/manifest verifies.
const manifestSchema = `
CREATE TABLE files (
	fileID TEXT PRIMARY KEY,
	domain TEXT,
	relativePath TEXT,
	flags INTEGER,
	file BLOB
);
`

// BuildArchive creates a backup archive under a fresh temp directory
// and returns it. The manifest and shard files are complete by the
// time BuildArchive returns; the database is closed so tests can
// reopen it read-only.
func BuildArchive(t *testing.T, files ...ArchiveFile) archive.Archive {
	t.Helper()

	root := t.TempDir()
	a, err := archive.At(root)
	if err != nil {
		t.Fatalf("archive.At: %v", err)
	}

	BuildManifest(t, a, files...)

	for _, file := range files {
		flags := file.Flags
		if flags == 0 {
			flags = 1
		}
		if flags != 1 || file.OmitShard {
			continue
		}
		id := file.FileID
		if id == "" {
			id = fileid.Derive(file.Domain, file.RelativePath)
		}
		if len(id) < 2 {
			continue
		}
		shardDir := filepath.Join(root, id[:2])
		if err := os.MkdirAll(shardDir, 0o755); err != nil {
			t.Fatalf("creating shard directory: %v", err)
		}
		if err := os.WriteFile(filepath.Join(shardDir, id), file.Content, 0o644); err != nil {
			t.Fatalf("writing shard file: %v", err)
		}
	}

	return a
}

// BuildManifest writes only the Manifest.db of an archive, leaving
// the flattened store alone. Used directly when a test needs an
// archive root it controls (for example an empty destination archive
// for migration).
func BuildManifest(t *testing.T, a archive.Archive, files ...ArchiveFile) {
	t.Helper()

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     a.ManifestPath(),
		PoolSize: 1,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, manifestSchema, nil)
		},
	})
	if err != nil {
		t.Fatalf("creating fixture manifest: %v", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			t.Errorf("closing fixture manifest: %v", err)
		}
	}()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("taking fixture connection: %v", err)
	}
	defer pool.Put(conn)

	for _, file := range files {
		id := file.FileID
		if id == "" {
			id = fileid.Derive(file.Domain, file.RelativePath)
		}
		flags := file.Flags
		if flags == 0 {
			flags = 1
		}

		var metadata any
		if !file.OmitMetadata {
			metadata = EncodeMetadata(t, file.RelativePath, file.LinkTarget)
		}

		err = sqlitex.Execute(conn,
			"INSERT INTO files (fileID, domain, relativePath, flags, file) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{id, file.Domain, file.RelativePath, flags, metadata},
			})
		if err != nil {
			t.Fatalf("inserting fixture row %s: %v", file.RelativePath, err)
		}
	}

}

// EncodeMetadata builds a binary property list in keyed-archive form,
// shaped the way the archive format stores per-file metadata: a $top
// root reference into a flat $objects array, with string fields held
// as UID cross-references. linkTarget may be empty for non-symlink
// records.
func EncodeMetadata(t *testing.T, relativePath, linkTarget string) []byte {
	t.Helper()

	root := map[string]any{
		"RelativePath": plist.UID(2),
	}
	objects := []any{"$null", root, relativePath}
	if linkTarget != "" {
		root["Target"] = plist.UID(uint64(len(objects)))
		objects = append(objects, linkTarget)
	}

	top := map[string]any{
		"$version":  100000,
		"$archiver": "NSKeyedArchiver",
		"$top":      map[string]any{"root": plist.UID(1)},
		"$objects":  objects,
	}

	data, err := plist.Marshal(top, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("encoding fixture metadata: %v", err)
	}
	return data
}

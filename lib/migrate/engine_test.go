// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package migrate_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/binhash"
	"github.com/bureau-foundation/backtree/lib/extract"
	"github.com/bureau-foundation/backtree/lib/fileid"
	"github.com/bureau-foundation/backtree/lib/manifest"
	"github.com/bureau-foundation/backtree/lib/migrate"
	"github.com/bureau-foundation/backtree/lib/testutil"
)

const appDomain = "AppDomain-com.example.app"

func openStore(t *testing.T, a archive.Archive) *manifest.Store {
	t.Helper()
	store, err := manifest.Open(context.Background(), a, manifest.Options{})
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("store.Close: %v", err)
		}
	})
	return store
}

func emptyArchive(t *testing.T) archive.Archive {
	t.Helper()
	a, err := archive.At(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestMigrateCopiesShards(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/notes.txt", Content: []byte("note body")},
	)
	store := openStore(t, source)
	destination := emptyArchive(t)

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 1 succeeded / 0 failed", result)
	}

	id := fileid.Derive(appDomain, "Documents/notes.txt")
	destinationShard, err := destination.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(filepath.Dir(destinationShard)) != id[:2] {
		t.Fatalf("destination shard %s not under two-character prefix", destinationShard)
	}

	sourceShard, err := source.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	equal, err := binhash.FilesEqual(destinationShard, sourceShard)
	if err != nil {
		t.Fatalf("FilesEqual: %v", err)
	}
	if !equal {
		t.Error("destination shard content differs from source shard")
	}

	// No record database appears at the destination without sync.
	if _, err := os.Stat(destination.ManifestPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("migration created %s without manifest sync", destination.ManifestPath())
	}
}

func TestMigrateLinkMode(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/notes.txt", Content: []byte("note body")},
	)
	store := openStore(t, source)
	destination := emptyArchive(t)

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeLink})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}

	id := fileid.Derive(appDomain, "Documents/notes.txt")
	destinationShard, err := destination.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	target, err := os.Readlink(destinationShard)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	sourceShard, err := source.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	if target != sourceShard {
		t.Errorf("link target = %s, want %s", target, sourceShard)
	}
}

func TestMigrateDoesNotMutateSource(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/notes.txt", Content: []byte("note body")},
	)
	id := fileid.Derive(appDomain, "Documents/notes.txt")
	sourceShard, err := source.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	shardBefore, err := binhash.HashFile(sourceShard)
	if err != nil {
		t.Fatal(err)
	}
	manifestBefore, err := binhash.HashFile(source.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}

	store := openStore(t, source)
	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy})
	if _, err := engine.Migrate(context.Background(), appDomain, emptyArchive(t)); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	shardAfter, err := binhash.HashFile(sourceShard)
	if err != nil {
		t.Fatal(err)
	}
	manifestAfter, err := binhash.HashFile(source.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	if shardBefore != shardAfter {
		t.Error("migration modified a source shard file")
	}
	if manifestBefore != manifestAfter {
		t.Error("migration modified the source manifest")
	}
}

func TestMigrateRefusesExistingShard(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/notes.txt", Content: []byte("new content")},
	)
	store := openStore(t, source)
	destination := emptyArchive(t)

	// Pre-place a shard entry at the destination.
	id := fileid.Derive(appDomain, "Documents/notes.txt")
	destinationShard, err := destination.ShardPath(id)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(destinationShard), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(destinationShard, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 0 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 0 succeeded / 1 failed", result)
	}
	if !errors.Is(result.Errors[0].Err, extract.ErrDestinationExists) {
		t.Errorf("error = %v, want ErrDestinationExists", result.Errors[0].Err)
	}

	content, err := os.ReadFile(destinationShard)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "already here" {
		t.Errorf("existing destination shard was overwritten: %q", content)
	}
}

func TestMigrateUnknownDomain(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "a.txt", Content: []byte("a")},
	)
	store := openStore(t, source)

	engine := migrate.New(store, migrate.Config{})
	_, err := engine.Migrate(context.Background(), "NoSuchDomain", emptyArchive(t))
	if !errors.Is(err, extract.ErrUnknownDomain) {
		t.Fatalf("Migrate error = %v, want ErrUnknownDomain", err)
	}
}

func TestMigrateSyncManifest(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Library", Flags: 2},
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/notes.txt", Content: []byte("note body")},
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "Documents/alias", Flags: 4, LinkTarget: "notes.txt"},
		testutil.ArchiveFile{Domain: "OtherDomain", RelativePath: "keep-out.txt", Content: []byte("x")},
	)
	store := openStore(t, source)

	// The destination is a valid archive with an empty manifest.
	destination := emptyArchive(t)
	testutil.BuildManifest(t, destination)

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy, SyncManifest: true})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 3 succeeded / 0 failed", result)
	}

	// The destination is now independently openable, and the domain
	// round-trips through the same store logic.
	destinationStore := openStore(t, destination)
	domains, err := destinationStore.Domains(context.Background())
	if err != nil {
		t.Fatalf("Domains on destination: %v", err)
	}
	if len(domains) != 1 || domains[0] != appDomain {
		t.Fatalf("destination domains = %v, want [%s]", domains, appDomain)
	}

	byPath := make(map[string]manifest.Record)
	err = destinationStore.FilesInDomain(context.Background(), appDomain, func(r manifest.Record) error {
		byPath[r.RelativePath] = r
		return nil
	})
	if err != nil {
		t.Fatalf("FilesInDomain on destination: %v", err)
	}
	if len(byPath) != 3 {
		t.Fatalf("destination rows = %d, want 3", len(byPath))
	}

	// Symlink metadata survived the round trip.
	target, err := byPath["Documents/alias"].SymlinkTarget()
	if err != nil {
		t.Fatalf("SymlinkTarget on migrated record: %v", err)
	}
	if target != "notes.txt" {
		t.Errorf("migrated symlink target = %q", target)
	}

	// And the migrated domain is extractable from the destination.
	extractionRoot := t.TempDir()
	extraction, err := extract.New(destinationStore, extract.Config{Mode: extract.ModeCopy}).
		Extract(context.Background(), appDomain, extractionRoot)
	if err != nil {
		t.Fatalf("Extract from migrated archive: %v", err)
	}
	if extraction.Succeeded != 3 || extraction.Failed != 0 {
		t.Fatalf("extraction from migrated archive = %+v", extraction)
	}
	content, err := os.ReadFile(filepath.Join(extractionRoot, "Documents", "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "note body" {
		t.Errorf("extracted content = %q", content)
	}
}

func TestMigrateSyncExcludesFailedRecords(t *testing.T) {
	source := testutil.BuildArchive(t,
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "good.txt", Content: []byte("g")},
		testutil.ArchiveFile{Domain: appDomain, RelativePath: "bad.txt", FileID: "short"},
	)
	store := openStore(t, source)

	destination := emptyArchive(t)
	testutil.BuildManifest(t, destination)

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy, SyncManifest: true})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 succeeded / 1 failed", result)
	}

	destinationStore := openStore(t, destination)
	var paths []string
	err = destinationStore.FilesInDomain(context.Background(), appDomain, func(r manifest.Record) error {
		paths = append(paths, r.RelativePath)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "good.txt" {
		t.Errorf("synced rows = %v, want only good.txt", paths)
	}
}

func TestMigrateWithWorkers(t *testing.T) {
	var files []testutil.ArchiveFile
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files = append(files, testutil.ArchiveFile{
			Domain:       appDomain,
			RelativePath: "Documents/" + name + ".dat",
			Content:      []byte(name),
		})
	}
	source := testutil.BuildArchive(t, files...)
	store := openStore(t, source)
	destination := emptyArchive(t)

	engine := migrate.New(store, migrate.Config{Mode: extract.ModeCopy, Workers: 3})
	result, err := engine.Migrate(context.Background(), appDomain, destination)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if result.Succeeded != 6 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 6 succeeded / 0 failed", result)
	}

	for _, file := range files {
		id := fileid.Derive(appDomain, file.RelativePath)
		shard, err := destination.ShardPath(id)
		if err != nil {
			t.Fatal(err)
		}
		content, err := os.ReadFile(shard)
		if err != nil {
			t.Errorf("reading migrated shard for %s: %v", file.RelativePath, err)
			continue
		}
		if string(content) != string(file.Content) {
			t.Errorf("shard content for %s = %q", file.RelativePath, content)
		}
	}
}

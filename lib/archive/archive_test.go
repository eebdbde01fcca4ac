// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/backtree/lib/fileid"
)

func TestShardPath(t *testing.T) {
	a, err := At(t.TempDir())
	if err != nil {
		t.Fatalf("At: %v", err)
	}

	id := fileid.Derive("AppDomain-com.example.app", "Documents/notes.txt")

	first, err := a.ShardPath(id)
	if err != nil {
		t.Fatalf("ShardPath: %v", err)
	}
	second, err := a.ShardPath(id)
	if err != nil {
		t.Fatalf("ShardPath: %v", err)
	}
	if first != second {
		t.Errorf("ShardPath is not pure: %s then %s", first, second)
	}

	base := filepath.Base(first)
	if base != id {
		t.Errorf("shard filename = %s, want %s", base, id)
	}
	shard := filepath.Base(filepath.Dir(first))
	if shard != id[:2] {
		t.Errorf("shard directory = %s, want %s", shard, id[:2])
	}
	if !strings.HasPrefix(first, a.Root()) {
		t.Errorf("shard path %s not under archive root %s", first, a.Root())
	}
	if !filepath.IsAbs(first) {
		t.Errorf("shard path %s is not absolute", first)
	}
}

func TestShardPathMalformed(t *testing.T) {
	a, err := At(t.TempDir())
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	for _, id := range []string{"", "a"} {
		if _, err := a.ShardPath(id); !errors.Is(err, ErrMalformedID) {
			t.Errorf("ShardPath(%q) error = %v, want ErrMalformedID", id, err)
		}
		if _, err := a.ShardDir(id); !errors.Is(err, ErrMalformedID) {
			t.Errorf("ShardDir(%q) error = %v, want ErrMalformedID", id, err)
		}
	}
}

func TestOpenChecksLayout(t *testing.T) {
	root := t.TempDir()

	// No manifest yet: structural failure.
	if _, err := Open(root); err == nil {
		t.Error("Open accepted an archive without a manifest database")
	}

	if err := os.WriteFile(filepath.Join(root, ManifestName), []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.ManifestPath() != filepath.Join(a.Root(), ManifestName) {
		t.Errorf("ManifestPath = %s", a.ManifestPath())
	}

	// Missing root entirely.
	if _, err := Open(filepath.Join(root, "no-such-dir")); err == nil {
		t.Error("Open accepted a nonexistent root")
	}
}

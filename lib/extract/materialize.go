// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/backtree/lib/manifest"
)

// Mode selects how regular files are materialized at the destination.
type Mode int

const (
	// ModeLink creates symbolic links pointing at the archive's
	// shard files. Targets are absolute, so the destination tree
	// stays valid when relocated relative to the archive.
	ModeLink Mode = iota
	// ModeCopy performs byte-for-byte copies. Permissions are
	// carried over best-effort; no extended attributes.
	ModeCopy
)

func (m Mode) String() string {
	switch m {
	case ModeLink:
		return "link"
	case ModeCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Plan is the per-file unit of work: one resolved (physical source →
// destination) pair plus the record classification that decides how
// it materializes. Plans are built fresh per run and never persisted.
type Plan struct {
	// RelativePath is the record's logical path, used for error
	// reporting.
	RelativePath string

	// Source is the absolute path of the physical shard file. Unused
	// for directory and symlink records, which have no payload in
	// the flattened store.
	Source string

	// Destination is the absolute path to create.
	Destination string

	// Flags decides the materialization: regular records link or
	// copy, directory records become empty directories, symlink
	// records become symlinks with the recorded target.
	Flags manifest.Flag

	// LinkTarget is the recorded original target for symlink
	// records. It is reproduced verbatim — never rewritten to point
	// into the archive.
	LinkTarget string
}

// Materialize produces the destination entry for one plan. The
// archive side is only ever read. An existing destination entry is an
// error wrapping [ErrDestinationExists]; the caller decides whether
// that is a failure worth acting on, Materialize never removes
// anything.
func Materialize(plan Plan, mode Mode) error {
	switch plan.Flags {
	case manifest.FlagDirectory:
		return EnsureDir(plan.Destination)
	case manifest.FlagSymlink:
		return materializeSymlink(plan)
	case manifest.FlagRegular:
		if mode == ModeCopy {
			return copyFile(plan.Source, plan.Destination)
		}
		return linkFile(plan.Source, plan.Destination)
	default:
		return fmt.Errorf("record has unsupported flags %d", plan.Flags)
	}
}

// materializeSymlink recreates a symlink record with its recorded
// original target, not a link into the archive.
func materializeSymlink(plan Plan) error {
	if plan.LinkTarget == "" {
		return fmt.Errorf("symlink record has no recorded target")
	}
	if err := os.Symlink(plan.LinkTarget, plan.Destination); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("creating symlink %s: %w", plan.Destination, ErrDestinationExists)
		}
		return fmt.Errorf("creating symlink %s: %w", plan.Destination, err)
	}
	return nil
}

// linkFile creates a symbolic link at destination pointing at the
// absolute shard path. The shard file must exist — a link that would
// dangle from the start means the archive lost the entry, which is
// worth reporting now rather than at first dereference.
func linkFile(source, destination string) error {
	if _, err := os.Lstat(source); err != nil {
		return fmt.Errorf("archive shard file: %w", err)
	}
	if err := os.Symlink(source, destination); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("linking %s: %w", destination, ErrDestinationExists)
		}
		return fmt.Errorf("linking %s: %w", destination, err)
	}
	return nil
}

// copyFile copies source to destination byte for byte. The
// destination is created exclusively; permissions follow the source
// best-effort.
func copyFile(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("archive shard file: %w", err)
	}
	defer in.Close()

	perm := os.FileMode(0o644)
	if info, err := in.Stat(); err == nil {
		perm = info.Mode().Perm()
	}

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("copying to %s: %w", destination, ErrDestinationExists)
		}
		return fmt.Errorf("copying to %s: %w", destination, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", destination, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("copying %s: %w", destination, err)
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import "fmt"

// Flag classifies a manifest row. The archive format stores these as
// integers in the flags column; anything outside the documented set
// maps to FlagUnknown, which engines report per record instead of
// crashing, since real-world archives occasionally carry values
// outside the documented set.
type Flag int

const (
	// FlagUnknown is any flags value outside the documented set.
	FlagUnknown Flag = 0
	// FlagRegular marks a regular file with a physical shard entry.
	FlagRegular Flag = 1
	// FlagDirectory marks a directory; there is no physical payload.
	FlagDirectory Flag = 2
	// FlagSymlink marks a symbolic link whose target is recorded in
	// the row's metadata blob, not in the flattened store.
	FlagSymlink Flag = 4
)

// ParseFlag maps a raw flags column value onto the closed Flag set.
func ParseFlag(raw int64) Flag {
	switch raw {
	case 1:
		return FlagRegular
	case 2:
		return FlagDirectory
	case 4:
		return FlagSymlink
	default:
		return FlagUnknown
	}
}

func (f Flag) String() string {
	switch f {
	case FlagRegular:
		return "regular"
	case FlagDirectory:
		return "directory"
	case FlagSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Record is one row of the archive's file relation. Records are
// produced by [Store.FilesInDomain], one per matching row, and are
// plain values: the store holds no reference to them after the
// callback returns.
type Record struct {
	// FileID is the stored content identifier. Untrusted: engines
	// validate it (and re-derive it from Domain and RelativePath)
	// before building filesystem paths from it.
	FileID string

	// Domain is the logical grouping label the file is filed under.
	Domain string

	// RelativePath is the file's path inside its domain's sandbox,
	// with forward-slash separators.
	RelativePath string

	// Flags classifies the record. RawFlags preserves the stored
	// integer for reporting when Flags is FlagUnknown.
	Flags    Flag
	RawFlags int64

	// Metadata is the row's opaque metadata blob: a binary property
	// list in keyed-archive form. Only symlink-target recovery needs
	// to look inside it.
	Metadata []byte
}

// SymlinkTarget returns the link target recorded in the metadata
// blob. Only meaningful for FlagSymlink records; a symlink record
// whose metadata does not carry a target is malformed.
func (r Record) SymlinkTarget() (string, error) {
	meta, err := parseMetadata(r.Metadata)
	if err != nil {
		return "", fmt.Errorf("metadata for %s: %w", r.RelativePath, err)
	}
	if meta.Target == "" {
		return "", fmt.Errorf("metadata for %s records no link target", r.RelativePath)
	}
	return meta.Target, nil
}

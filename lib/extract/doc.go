// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract rebuilds a domain's logical directory tree from a
// backup archive's flattened, content-addressed store.
//
// [Engine.Extract] drives one run: resolve the domain against the
// manifest, walk its records in relation order, and materialize each
// one under the destination root — symbolic links into the archive or
// byte copies for regular files ([Mode]), empty directories for
// directory records, and symlinks reproducing their recorded original
// target for symlink records.
//
// The run model is extract-everything-possible: a structural failure
// (unknown domain, unreadable manifest) aborts before any file work,
// but per-record failures — malformed identifiers, missing shard
// entries, already-occupied destinations — are collected into
// [Result] while the rest of the batch proceeds. Real archives
// routinely carry a handful of inconsistent rows, and an
// all-or-nothing policy would make the tool useless on them.
//
// Nothing in this package writes to the archive: shard files are
// opened read-only and the manifest connection is read-only at the
// SQLite level. Destinations are never overwritten; see
// [ErrDestinationExists].
//
// [Materialize], [EnsureDir], and the shared result types are also
// used by lib/migrate, which transplants shard files between archives
// instead of rebuilding a logical tree.
package extract

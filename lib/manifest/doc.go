// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads a backup archive's record database: the
// SQLite file that maps each content identifier in the flattened
// store back to its logical domain and relative path.
//
// [Store] is the query layer. It opens the database read-only (the
// archive-never-mutated invariant is enforced at the connection, see
// lib/sqlitepool), verifies that the files table matches the expected
// logical schema, and streams [Record] values per domain. The one
// write path, [Store.ReplaceDomain], exists for migration's optional
// manifest synchronization and requires [OpenReadWrite].
//
// Each record's metadata blob is a binary property list in keyed
// archive form. The store treats it as opaque except for
// [Record.SymlinkTarget], which digs out the recorded link target so
// that extraction can recreate symlink records faithfully instead of
// pointing them into the archive's shard store.
package manifest

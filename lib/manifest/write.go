// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"
)

// ReplaceDomain replaces every row filed under domain with the given
// records, in a single IMMEDIATE transaction: the old rows are
// deleted first, then the new ones inserted. Migration uses this to
// make a destination archive independently openable after its shard
// files have been transplanted.
//
// The store must have been opened with [OpenReadWrite]; on a
// read-only store the transaction fails at the connection without
// touching the database.
func (s *Store) ReplaceDomain(ctx context.Context, domain string, records []Record) (err error) {
	if !s.writable {
		return fmt.Errorf("replacing domain %q: store is read-only", domain)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("replacing domain %q: begin transaction: %w", domain, err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, "DELETE FROM files WHERE domain = ?", &sqlitex.ExecOptions{
		Args: []any{domain},
	})
	if err != nil {
		return fmt.Errorf("replacing domain %q: delete: %w", domain, err)
	}

	for _, record := range records {
		var metadata any
		if len(record.Metadata) > 0 {
			metadata = record.Metadata
		}
		err = sqlitex.Execute(conn,
			"INSERT INTO files (fileID, domain, relativePath, flags, file) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{record.FileID, domain, record.RelativePath, record.RawFlags, metadata},
			})
		if err != nil {
			return fmt.Errorf("replacing domain %q: insert %s: %w", domain, record.RelativePath, err)
		}
	}

	return nil
}

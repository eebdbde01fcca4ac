// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/sqlitepool"
)

// Store reads (and, when opened read-write, updates) one archive's
// record database. The store holds no exclusive lock: concurrent
// readers of the same archive are fine, and read-only stores cannot
// write by construction — the connections themselves are opened
// read-only.
//
// Store is safe for concurrent use; each query borrows its own pooled
// connection.
type Store struct {
	pool     *sqlitepool.Pool
	archive  archive.Archive
	logger   *slog.Logger
	writable bool
}

// Options holds optional Store parameters.
type Options struct {
	// PoolSize is the SQLite connection pool size. Defaults to 2:
	// manifest queries are few and sequential in the common case.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// expectedColumns is the logical schema of the file relation. Open
// rejects databases whose files table is missing any of these columns
// or declares them with a different type, so a wrong or damaged
// database fails loudly before any file work starts.
var expectedColumns = map[string]string{
	"fileID":       "TEXT",
	"domain":       "TEXT",
	"relativePath": "TEXT",
	"flags":        "INTEGER",
	"file":         "BLOB",
}

// Open opens the archive's record database read-only and verifies its
// schema. Fails if the database is missing, unreadable, or not shaped
// like a backup manifest.
func Open(ctx context.Context, a archive.Archive, opts Options) (*Store, error) {
	return open(ctx, a, opts, false)
}

// OpenReadWrite opens the record database writable. Used by migration
// when synchronizing destination manifest rows, and by test fixtures.
// The schema is verified the same way as [Open].
func OpenReadWrite(ctx context.Context, a archive.Archive, opts Options) (*Store, error) {
	return open(ctx, a, opts, true)
}

func open(ctx context.Context, a archive.Archive, opts Options, writable bool) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     a.ManifestPath(),
		ReadOnly: !writable,
		PoolSize: poolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", a.ManifestPath(), err)
	}

	store := &Store{
		pool:     pool,
		archive:  a,
		logger:   logger,
		writable: writable,
	}

	// Connections open lazily, so the first Take is also where a
	// missing or unreadable database surfaces.
	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("opening manifest %s: %w", a.ManifestPath(), err)
	}
	err = verifySchema(conn)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("manifest %s: %w", a.ManifestPath(), err)
	}

	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Archive returns the archive this store was opened on.
func (s *Store) Archive() archive.Archive {
	return s.archive
}

// Domains returns the distinct domains present in the file relation.
// The order is whatever the relation yields for this query; it is
// stable within one open store but carries no meaning across archive
// versions.
func (s *Store) Domains(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var domains []string
	err = sqlitex.Execute(conn, "SELECT domain FROM files GROUP BY domain", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			domains = append(domains, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	return domains, nil
}

// HasDomain reports whether the domain appears in the file relation.
func (s *Store) HasDomain(ctx context.Context, domain string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.Put(conn)

	found := false
	err = sqlitex.Execute(conn, "SELECT 1 FROM files WHERE domain = ? LIMIT 1", &sqlitex.ExecOptions{
		Args: []any{domain},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	if err != nil {
		return false, fmt.Errorf("checking domain %q: %w", domain, err)
	}
	return found, nil
}

// FilesInDomain streams every record filed under domain to fn, one
// per matching row, in the order the relation yields them. Zero
// matching rows is not an error — fn is simply never called. An error
// from fn aborts the scan and is returned to the caller.
func (s *Store) FilesInDomain(ctx context.Context, domain string, fn func(Record) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"SELECT fileID, relativePath, flags, file FROM files WHERE domain = ?",
		&sqlitex.ExecOptions{
			Args: []any{domain},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rawFlags := stmt.ColumnInt64(2)
				record := Record{
					FileID:       stmt.ColumnText(0),
					Domain:       domain,
					RelativePath: stmt.ColumnText(1),
					Flags:        ParseFlag(rawFlags),
					RawFlags:     rawFlags,
				}
				if n := stmt.ColumnLen(3); n > 0 {
					record.Metadata = make([]byte, n)
					stmt.ColumnBytes(3, record.Metadata)
				}
				return fn(record)
			},
		})
	if err != nil {
		return fmt.Errorf("querying files in domain %q: %w", domain, err)
	}
	return nil
}

// verifySchema checks the files table against expectedColumns via
// PRAGMA table_info. Extra columns are fine; missing columns or type
// mismatches are not.
func verifySchema(conn *sqlite.Conn) error {
	missing := make(map[string]string, len(expectedColumns))
	for name, typ := range expectedColumns {
		missing[name] = typ
	}

	err := sqlitex.ExecuteTransient(conn, "PRAGMA table_info('files')", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			name := stmt.ColumnText(1)
			columnType := stmt.ColumnText(2)
			expected, ok := missing[name]
			if !ok {
				return nil
			}
			if expected != columnType {
				return fmt.Errorf("column %s has type %s, want %s", name, columnType, expected)
			}
			delete(missing, name)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("verifying schema: %w", err)
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("verifying schema: files table is missing columns %v (not a backup manifest?)", names)
	}
	return nil
}

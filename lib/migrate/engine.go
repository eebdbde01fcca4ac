// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package migrate transplants one domain's physical files from a
// source archive's flattened store into a destination archive's
// flattened store. The destination layout is the destination's own
// two-level identifier sharding — not the domain's logical tree — so
// the result is a valid archive store, not a reconstructed sandbox.
//
// By default only physical files move: the destination's record
// database is neither created nor modified, so the transplanted
// shards are only reachable through a manifest that already (or
// later) carries matching rows. [Config.SyncManifest] closes that
// gap by rewriting the domain's rows in the destination manifest
// after the file work, making the destination independently openable
// by lib/manifest.
//
// The source archive is never written, in either direction.
package migrate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/extract"
	"github.com/bureau-foundation/backtree/lib/fileid"
	"github.com/bureau-foundation/backtree/lib/manifest"
)

// Config holds the parameters for a migration engine.
type Config struct {
	// Mode selects link or copy materialization of shard files into
	// the destination store.
	Mode extract.Mode

	// Workers bounds the per-file worker pool. Zero or one runs
	// sequentially.
	Workers int

	// SyncManifest rewrites the domain's rows in the destination
	// archive's record database after the file work, in one
	// transaction: rows for every record whose physical side
	// succeeded (directory and symlink records have no physical
	// side and always sync). Failed records are left out so the
	// destination manifest never points at shards that did not
	// arrive.
	SyncManifest bool

	// Progress, if non-nil, receives progress events.
	Progress extract.ProgressFunc

	// Logger receives per-record failure details at debug level.
	Logger *slog.Logger
}

// Engine moves one domain between archives. Construct per run.
type Engine struct {
	source *manifest.Store
	config Config
	logger *slog.Logger
}

// New creates a migration engine reading from an open source
// manifest store.
func New(source *manifest.Store, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{source: source, config: config, logger: logger}
}

// Migrate transplants domain into the destination archive. Regular
// records land at the destination's own shard path for their
// identifier; existing destination shard entries are never
// overwritten and surface as per-record failures. Structural
// failures (unknown domain, unreadable relation, failed manifest
// sync) return a nil Result and an error.
func (e *Engine) Migrate(ctx context.Context, domain string, destination archive.Archive) (*extract.Result, error) {
	known, err := e.source.HasDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("migrating %q: %w", domain, extract.ErrUnknownDomain)
	}

	if e.config.Progress != nil {
		e.config.Progress(extract.ProgressEvent{Stage: extract.StageQuerying})
	}

	var records []manifest.Record
	err = e.source.FilesInDomain(ctx, domain, func(record manifest.Record) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	run := &migrationRun{
		engine: e,
		total:  len(records),
		result: &extract.Result{},
	}
	run.process(records, destination)

	if e.config.SyncManifest {
		if err := e.syncManifest(ctx, domain, destination, run.synced); err != nil {
			return nil, err
		}
	}

	return run.result, nil
}

// migrationRun accumulates per-record outcomes and the records
// eligible for manifest sync under one lock.
type migrationRun struct {
	engine *Engine

	mu     sync.Mutex
	result *extract.Result
	synced []manifest.Record
	done   int
	total  int
}

func (r *migrationRun) process(records []manifest.Record, destination archive.Archive) {
	workers := r.engine.config.Workers
	if workers <= 1 {
		for _, record := range records {
			r.finish(record, r.engine.migrateOne(record, destination))
		}
		return
	}

	work := make(chan manifest.Record)
	var waitGroup sync.WaitGroup
	for i := 0; i < workers; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for record := range work {
				r.finish(record, r.engine.migrateOne(record, destination))
			}
		}()
	}
	for _, record := range records {
		work <- record
	}
	close(work)
	waitGroup.Wait()
}

func (r *migrationRun) finish(record manifest.Record, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	if err != nil {
		r.result.Failed++
		r.result.Errors = append(r.result.Errors, extract.FileError{
			RelativePath: record.RelativePath,
			Err:          err,
		})
		r.engine.logger.Debug("record failed",
			"relative_path", record.RelativePath,
			"error", err,
		)
	} else {
		r.result.Succeeded++
		r.synced = append(r.synced, record)
	}
	if r.engine.config.Progress != nil {
		r.engine.config.Progress(extract.ProgressEvent{
			Stage: extract.StageMigrating,
			Done:  r.done,
			Total: r.total,
		})
	}
}

// migrateOne transplants a single record. Directory and symlink
// records have no payload in the flattened store, so their physical
// side is a no-op; they exist to be carried into the destination
// manifest when sync is on.
func (e *Engine) migrateOne(record manifest.Record, destination archive.Archive) error {
	switch record.Flags {
	case manifest.FlagDirectory, manifest.FlagSymlink:
		return nil
	case manifest.FlagRegular:
	default:
		return fmt.Errorf("unsupported flags value %d", record.RawFlags)
	}

	if err := fileid.Validate(record.FileID); err != nil {
		return err
	}
	if err := fileid.Verify(record.FileID, record.Domain, record.RelativePath); err != nil {
		return err
	}

	source, err := e.source.Archive().ShardPath(record.FileID)
	if err != nil {
		return err
	}
	destinationShardDir, err := destination.ShardDir(record.FileID)
	if err != nil {
		return err
	}
	destinationPath, err := destination.ShardPath(record.FileID)
	if err != nil {
		return err
	}

	if err := extract.EnsureDir(destinationShardDir); err != nil {
		return err
	}
	return extract.Materialize(extract.Plan{
		RelativePath: record.RelativePath,
		Source:       source,
		Destination:  destinationPath,
		Flags:        manifest.FlagRegular,
	}, e.config.Mode)
}

// syncManifest rewrites the domain's rows in the destination
// manifest. The destination must already be a valid archive with a
// manifest database; sync failures are structural, since a
// half-synced manifest is worse than none.
func (e *Engine) syncManifest(ctx context.Context, domain string, destination archive.Archive, records []manifest.Record) error {
	store, err := manifest.OpenReadWrite(ctx, destination, manifest.Options{Logger: e.logger})
	if err != nil {
		return fmt.Errorf("syncing destination manifest: %w", err)
	}
	defer store.Close()

	if err := store.ReplaceDomain(ctx, domain, records); err != nil {
		return fmt.Errorf("syncing destination manifest: %w", err)
	}
	return nil
}

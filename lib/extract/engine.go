// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bureau-foundation/backtree/lib/fileid"
	"github.com/bureau-foundation/backtree/lib/manifest"
)

// Config holds the parameters for an extraction engine.
type Config struct {
	// Mode selects link or copy materialization for regular files.
	Mode Mode

	// Workers bounds the per-file worker pool. Zero or one runs
	// strictly sequentially in relation order; higher values
	// materialize files concurrently. Per-file failures never cancel
	// sibling work either way.
	Workers int

	// Progress, if non-nil, receives progress events. Calls are
	// serialized even when Workers > 1.
	Progress ProgressFunc

	// Logger receives per-record failure details at debug level. If
	// nil, a no-op logger is used.
	Logger *slog.Logger
}

// Engine reconstructs one domain's logical directory tree from an
// archive's flattened store. Construct per run with [New]; an Engine
// holds no state between runs.
type Engine struct {
	store  *manifest.Store
	config Config
	logger *slog.Logger
}

// New creates an extraction engine over an open manifest store.
func New(store *manifest.Store, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: store, config: config, logger: logger}
}

// Extract materializes every record of domain under destinationRoot:
// directories as directories, symlink records as symlinks with their
// recorded targets, regular files as links into the archive or byte
// copies depending on the configured mode.
//
// Structural failures (unknown domain, unreadable relation) return a
// nil Result and an error. Per-record failures are accumulated in the
// Result while the run continues; a domain with zero records is a
// successful run with zero counts.
func (e *Engine) Extract(ctx context.Context, domain, destinationRoot string) (*Result, error) {
	absoluteRoot, err := filepath.Abs(destinationRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving destination %s: %w", destinationRoot, err)
	}

	known, err := e.store.HasDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("extracting %q: %w", domain, ErrUnknownDomain)
	}

	e.progress(ProgressEvent{Stage: StageQuerying})
	records, err := collectRecords(ctx, e.store, domain)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	run := &runState{
		result:   result,
		progress: e.config.Progress,
		stage:    StageExtracting,
		total:    len(records),
		logger:   e.logger,
	}
	forEachRecord(records, e.config.Workers, func(record manifest.Record) {
		run.finish(record, e.extractOne(record, absoluteRoot))
	})

	return result, nil
}

// extractOne materializes a single record under the destination root.
func (e *Engine) extractOne(record manifest.Record, destinationRoot string) error {
	plan, err := e.planRecord(record, destinationRoot)
	if err != nil {
		return err
	}
	if err := EnsureDir(filepath.Dir(plan.Destination)); err != nil {
		return err
	}
	return Materialize(plan, e.config.Mode)
}

// planRecord validates a manifest record and resolves it into a Plan.
// Validation failures (unknown flags, malformed or mismatched
// identifier, escaping path) are per-record: the record is skipped
// and reported, the run continues.
func (e *Engine) planRecord(record manifest.Record, destinationRoot string) (Plan, error) {
	if record.Flags == manifest.FlagUnknown {
		return Plan{}, fmt.Errorf("unsupported flags value %d", record.RawFlags)
	}

	destination, err := destinationPath(destinationRoot, record.RelativePath)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		RelativePath: record.RelativePath,
		Destination:  destination,
		Flags:        record.Flags,
	}

	switch record.Flags {
	case manifest.FlagSymlink:
		target, err := record.SymlinkTarget()
		if err != nil {
			return Plan{}, err
		}
		plan.LinkTarget = target

	case manifest.FlagRegular:
		if err := fileid.Validate(record.FileID); err != nil {
			return Plan{}, err
		}
		// The manifest row is untrusted; re-deriving the identifier
		// catches rows whose stored identifier no longer matches
		// their (domain, path) and would silently resolve to the
		// wrong shard entry.
		if err := fileid.Verify(record.FileID, record.Domain, record.RelativePath); err != nil {
			return Plan{}, err
		}
		source, err := e.store.Archive().ShardPath(record.FileID)
		if err != nil {
			return Plan{}, err
		}
		plan.Source = source
	}

	return plan, nil
}

// destinationPath joins a manifest relative path onto the destination
// root and rejects paths that would escape it. Manifest rows are
// untrusted input; a relative path climbing out of the destination
// must not place files elsewhere on the filesystem.
func destinationPath(root, relativePath string) (string, error) {
	joined := filepath.Join(root, filepath.FromSlash(relativePath))
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", fmt.Errorf("relative path %q escapes the destination root", relativePath)
	}
	return joined, nil
}

// collectRecords drains a domain's records into a slice. The engines
// need the record count up front for progress reporting and for
// dividing work across the pool.
func collectRecords(ctx context.Context, store *manifest.Store, domain string) ([]manifest.Record, error) {
	var records []manifest.Record
	err := store.FilesInDomain(ctx, domain, func(record manifest.Record) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// runState is the single accumulation point for per-record outcomes.
// One mutex guards the result and serializes progress callbacks, so
// a pooled run cannot lose updates.
type runState struct {
	mu       sync.Mutex
	result   *Result
	progress ProgressFunc
	stage    Stage
	total    int
	done     int
	logger   *slog.Logger
}

func (r *runState) finish(record manifest.Record, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	if err != nil {
		r.result.failure(record.RelativePath, err)
		r.logger.Debug("record failed",
			"relative_path", record.RelativePath,
			"error", err,
		)
	} else {
		r.result.success()
	}
	if r.progress != nil {
		r.progress(ProgressEvent{Stage: r.stage, Done: r.done, Total: r.total})
	}
}

// forEachRecord applies fn to every record, sequentially when workers
// is zero or one (preserving relation order), otherwise across a
// bounded pool. fn must do its own failure accounting — a failed
// record never cancels the rest of the batch.
func forEachRecord(records []manifest.Record, workers int, fn func(manifest.Record)) {
	if workers <= 1 {
		for _, record := range records {
			fn(record)
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
				fn(record)
			}
		}()
	}
	for _, record := range records {
		work <- record
	}
	close(work)
	waitGroup.Wait()
}

func (e *Engine) progress(event ProgressEvent) {
	if e.config.Progress != nil {
		e.config.Progress(event)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"errors"
	"fmt"
)

// ErrUnknownDomain is returned by engines when the requested domain
// does not appear in the manifest at all. This is a structural
// failure: no file work happens.
var ErrUnknownDomain = errors.New("domain not present in manifest")

// ErrDestinationExists marks a materialization refused because
// something already occupies the destination path. The engines never
// remove or overwrite existing entries; re-running over a partial
// destination surfaces already-materialized files as failures of this
// kind rather than corrupting them.
var ErrDestinationExists = errors.New("destination already exists")

// FileError is one per-record failure: the logical path that could
// not be materialized and why.
type FileError struct {
	RelativePath string
	Err          error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelativePath, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result aggregates one extraction or migration run. Per-record
// failures accumulate here while the run continues; only structural
// failures (bad archive, unknown domain, unreadable relation) abort a
// run early.
type Result struct {
	Succeeded uint
	Failed    uint

	// Errors holds one entry per failed record, in the order the
	// failures occurred.
	Errors []FileError
}

func (r *Result) success() {
	r.Succeeded++
}

func (r *Result) failure(relativePath string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, FileError{RelativePath: relativePath, Err: err})
}

// Stage identifies what phase of a run a progress event describes.
type Stage int

const (
	// StageQuerying covers the manifest query before file work.
	StageQuerying Stage = iota
	// StageExtracting covers per-file materialization into a
	// destination tree.
	StageExtracting
	// StageMigrating covers per-file transplantation into a
	// destination archive's flattened store.
	StageMigrating
)

func (s Stage) String() string {
	switch s {
	case StageQuerying:
		return "querying"
	case StageExtracting:
		return "extracting"
	case StageMigrating:
		return "migrating"
	default:
		return "unknown"
	}
}

// ProgressEvent reports run progress. Total is zero while querying,
// then the record count once file work starts.
type ProgressEvent struct {
	Stage Stage
	Done  int
	Total int
}

// ProgressFunc receives progress events. Events arrive from the
// goroutine that processed the file; a ProgressFunc used with a
// worker pool must be safe for concurrent calls — the engines already
// serialize events under the result lock.
type ProgressFunc func(ProgressEvent)

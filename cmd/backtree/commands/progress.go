// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/backtree/lib/extract"
)

// progressRenderer draws a single-line progress display on stderr. It
// stays silent when stderr is not a terminal, so piped and CI runs get
// clean output. The engine serializes progress callbacks, so no
// locking is needed here.
type progressRenderer struct {
	enabled bool
	drawn   bool
}

func newProgressRenderer() *progressRenderer {
	return &progressRenderer{
		enabled: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Func returns the callback to hand to an engine, or nil when stderr
// is not a terminal.
func (r *progressRenderer) Func() extract.ProgressFunc {
	if !r.enabled {
		return nil
	}
	return func(event extract.ProgressEvent) {
		r.drawn = true
		if event.Total == 0 {
			fmt.Fprintf(os.Stderr, "\r%s...", event.Stage)
			return
		}
		fmt.Fprintf(os.Stderr, "\r%s %d/%d", event.Stage, event.Done, event.Total)
	}
}

// Finish terminates the progress line so subsequent output starts on
// a fresh line.
func (r *progressRenderer) Finish() {
	if r.drawn {
		fmt.Fprintln(os.Stderr)
	}
}

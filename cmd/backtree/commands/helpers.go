// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/config"
	"github.com/bureau-foundation/backtree/lib/extract"
	"github.com/bureau-foundation/backtree/lib/manifest"
)

// loadDefaults resolves flag defaults: an explicit --config path wins,
// otherwise BACKTREE_CONFIG is consulted, otherwise built-in defaults.
func loadDefaults(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// openSource opens the archive at root and its manifest read-only.
// The caller owns the returned store and must Close it.
func openSource(ctx context.Context, root string, defaults *config.Config, logger *slog.Logger) (*manifest.Store, error) {
	a, err := archive.Open(root)
	if err != nil {
		return nil, err
	}
	return manifest.Open(ctx, a, manifest.Options{
		PoolSize: defaults.PoolSize,
		Logger:   logger,
	})
}

// reportResult summarizes a completed run on stderr. Per-file failures
// are listed individually; a run with failures still completed, so the
// caller returns nil and the process exits zero.
func reportResult(action string, result *extract.Result) {
	for _, failure := range result.Errors {
		fmt.Fprintf(os.Stderr, "failed: %s: %v\n", failure.RelativePath, failure.Err)
	}
	if result.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%s %d files, %d failed\n", action, result.Succeeded, result.Failed)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %d files\n", action, result.Succeeded)
}

// materializeMode maps the --copy flag to an extraction mode.
func materializeMode(copyFiles bool) extract.Mode {
	if copyFiles {
		return extract.ModeCopy
	}
	return extract.ModeLink
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete backtree CLI command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/backtree/cmd/backtree/cli"
	"github.com/bureau-foundation/backtree/lib/version"
)

// Root builds and returns the complete backtree CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "backtree",
		Description: `backtree: reconstruct filesystem trees from flattened backup archives.

A backup archive stores every file under a content-derived identifier in
two-level sharded directories, with a SQLite manifest mapping each
identifier back to its domain and relative path. backtree reads that
manifest to list domains, rebuild a domain's directory tree, or move a
domain's files into another archive. The source archive is never
modified.`,
		Subcommands: []*cli.Command{
			domainsCommand(),
			extractCommand(),
			migrateCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string) error {
					fmt.Printf("backtree %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "List the domains in a backup",
				Command:     "backtree domains /backups/device",
			},
			{
				Description: "Extract an app sandbox as symlinks into the archive",
				Command:     "backtree extract /backups/device --domain AppDomain-com.example.app --out ./sandbox",
			},
			{
				Description: "Extract with full file copies, eight files at a time",
				Command:     "backtree extract /backups/device --domain HomeDomain --out ./home --copy --workers 8",
			},
			{
				Description: "Move a domain's files into another archive",
				Command:     "backtree migrate /backups/old /backups/new --domain CameraRollDomain --copy",
			},
			{
				Description: "Move a domain and rewrite its rows in the destination manifest",
				Command:     "backtree migrate /backups/old /backups/new --domain HomeDomain --copy --sync-manifest",
			},
		},
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backtree/cmd/backtree/cli"
	"github.com/bureau-foundation/backtree/lib/extract"
)

type extractParams struct {
	domain     string
	out        string
	copyFiles  bool
	workers    int
	configPath string
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Extract a domain's file tree from an archive",
		Description: `Rebuild one domain's directory tree under --out.

By default each regular file becomes a symlink pointing at its sharded
blob inside the archive, which is fast and takes no extra space; --copy
writes full copies instead. Directories are created as directories, and
symlink records are recreated from the target recorded in the manifest.

Existing files at the destination are never overwritten. Records that
cannot be extracted (missing blob, corrupt identifier, occupied
destination) are reported individually and the rest of the domain is
still extracted; the archive itself is never modified.`,
		Usage: "backtree extract <archive> --domain <domain> --out <dir> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVar(&params.domain, "domain", "", "domain to extract (see 'backtree domains')")
			flagSet.StringVar(&params.out, "out", "", "destination directory for the rebuilt tree")
			flagSet.BoolVar(&params.copyFiles, "copy", false, "copy file contents instead of symlinking")
			flagSet.IntVar(&params.workers, "workers", 0, "concurrent per-file workers (0 = sequential)")
			flagSet.StringVar(&params.configPath, "config", "", "path to a backtree config file")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Extract an app sandbox as symlinks",
				Command:     "backtree extract /backups/device --domain AppDomain-com.example.app --out ./sandbox",
			},
			{
				Description: "Extract full copies with eight workers",
				Command:     "backtree extract /backups/device --domain HomeDomain --out ./home --copy --workers 8",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path, got %d arguments", len(args))
			}
			if params.domain == "" {
				return fmt.Errorf("--domain is required (see 'backtree domains' for the available names)")
			}
			if params.out == "" {
				return fmt.Errorf("--out is required")
			}

			defaults, err := loadDefaults(params.configPath)
			if err != nil {
				return err
			}
			copyFiles := params.copyFiles || defaults.Copy
			workers := params.workers
			if workers == 0 {
				workers = defaults.Workers
			}

			logger := cli.NewCommandLogger().With(
				"command", "extract",
				"archive", args[0],
				"domain", params.domain,
			)
			store, err := openSource(ctx, args[0], defaults, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			progress := newProgressRenderer()
			engine := extract.New(store, extract.Config{
				Mode:     materializeMode(copyFiles),
				Workers:  workers,
				Progress: progress.Func(),
				Logger:   logger,
			})
			result, err := engine.Extract(ctx, params.domain, params.out)
			progress.Finish()
			if err != nil {
				return err
			}

			reportResult("extracted", result)
			return nil
		},
	}
}

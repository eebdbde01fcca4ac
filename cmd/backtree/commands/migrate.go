// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backtree/cmd/backtree/cli"
	"github.com/bureau-foundation/backtree/lib/archive"
	"github.com/bureau-foundation/backtree/lib/migrate"
)

type migrateParams struct {
	domain       string
	copyFiles    bool
	workers      int
	syncManifest bool
	configPath   string
}

func migrateCommand() *cli.Command {
	var params migrateParams

	return &cli.Command{
		Name:    "migrate",
		Summary: "Move a domain's files into another archive",
		Description: `Transplant one domain's physical files from a source archive into a
destination archive's sharded store. Each file lands at the
destination's own shard path for its identifier, so the result is a
valid archive store rather than a rebuilt directory tree.

By default only the files move: the destination's manifest database is
left alone, and the source archive is never modified in any case. With
--sync-manifest the domain's rows are also rewritten in the destination
manifest (which must already exist), making the destination
independently usable with "backtree domains" and "backtree extract".

Existing destination shard entries are never overwritten; collisions
are reported individually and the rest of the domain still moves.`,
		Usage: "backtree migrate <src-archive> <dest-archive> --domain <domain> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
			flagSet.StringVar(&params.domain, "domain", "", "domain to migrate (see 'backtree domains')")
			flagSet.BoolVar(&params.copyFiles, "copy", false, "copy file contents instead of symlinking")
			flagSet.IntVar(&params.workers, "workers", 0, "concurrent per-file workers (0 = sequential)")
			flagSet.BoolVar(&params.syncManifest, "sync-manifest", false, "rewrite the domain's rows in the destination manifest")
			flagSet.StringVar(&params.configPath, "config", "", "path to a backtree config file")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Move a domain with full file copies",
				Command:     "backtree migrate /backups/old /backups/new --domain CameraRollDomain --copy",
			},
			{
				Description: "Move a domain and rewrite the destination manifest",
				Command:     "backtree migrate /backups/old /backups/new --domain HomeDomain --copy --sync-manifest",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected source and destination archive paths, got %d arguments", len(args))
			}
			if params.domain == "" {
				return fmt.Errorf("--domain is required (see 'backtree domains' for the available names)")
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
				"command", "migrate",
				"source", args[0],
				"destination", args[1],
				"domain", params.domain,
			)
			store, err := openSource(ctx, args[0], defaults, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			// The destination needs no manifest unless --sync-manifest
			// is set, so it is addressed without the layout checks
			// that opening the source performs.
			destination, err := archive.At(args[1])
			if err != nil {
				return err
			}

			progress := newProgressRenderer()
			engine := migrate.New(store, migrate.Config{
				Mode:         materializeMode(copyFiles),
				Workers:      workers,
				SyncManifest: params.syncManifest,
				Progress:     progress.Func(),
				Logger:       logger,
			})
			result, err := engine.Migrate(ctx, params.domain, destination)
			progress.Finish()
			if err != nil {
				return err
			}

			reportResult("migrated", result)
			return nil
		},
	}
}

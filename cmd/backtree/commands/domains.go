// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/backtree/cmd/backtree/cli"
)

type domainsParams struct {
	configPath string
}

func domainsCommand() *cli.Command {
	var params domainsParams

	return &cli.Command{
		Name:    "domains",
		Summary: "List the domains in an archive",
		Description: `List every domain present in an archive's manifest, one per line,
in the manifest's own order.

A domain groups the files of one sandbox: an app's container, the
shared home area, a system account. Use the printed names with
"backtree extract --domain" and "backtree migrate --domain".`,
		Usage: "backtree domains <archive>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("domains", pflag.ContinueOnError)
			flagSet.StringVar(&params.configPath, "config", "", "path to a backtree config file")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "List the domains in a backup",
				Command:     "backtree domains /backups/device",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path, got %d arguments", len(args))
			}

			defaults, err := loadDefaults(params.configPath)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "domains")
			store, err := openSource(ctx, args[0], defaults, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			domains, err := store.Domains(ctx)
			if err != nil {
				return err
			}
			for _, domain := range domains {
				fmt.Println(domain)
			}
			return nil
		},
	}
}

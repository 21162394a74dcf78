package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	pluginsDir string
	dryRun     bool
	debug      bool
	hardlink   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "medley",
		Short:         "Medley orchestrates metadata-enrichment plugins over a batch of media inputs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the configuration document (default medley.yaml)")
	cmd.PersistentFlags().StringVar(&flags.pluginsDir, "plugins", "plugins", "directory containing plugin.json manifests")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "override options.dry_run")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "override options.debug")
	cmd.PersistentFlags().BoolVar(&flags.hardlink, "hardlink", false, "override options.hardlink")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

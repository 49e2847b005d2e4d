package main

import (
	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/pkg/songid"
)

// newRootCommand builds the command tree. extra options are appended to every
// service the commands open.
func newRootCommand(extra []songid.Option) *cobra.Command {
	ctx := newCommandContext(extra)

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage the songid fingerprint catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (TOML)")
	flags.StringVar(&ctx.dbFlag, "db", "", "Catalog database path (env: SONGID_DB_PATH)")
	flags.StringVar(&ctx.tempFlag, "temp", "", "Directory for intermediate audio files (env: SONGID_TEMP_DIR)")
	flags.IntVar(&ctx.rateFlag, "rate", 0, "Analysis sample rate in Hz (env: SONGID_SAMPLE_RATE)")

	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newSpectrogramCommand(ctx))

	return rootCmd
}

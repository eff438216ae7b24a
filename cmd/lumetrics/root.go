package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lu-metrics/internal/config"
	"github.com/banshee-data/lu-metrics/internal/monitoring"
	"github.com/banshee-data/lu-metrics/internal/version"
)

type rootFlags struct {
	configPath string
	quiet      bool

	opts *config.Options
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "lumetrics <command> [options]",
		Short: "Confusion reports and label statistics for LU test runs",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.quiet {
				monitoring.SetLogger(nil)
			}
			if flags.configPath == "" {
				flags.opts = config.DefaultOptions()
				return nil
			}
			opts, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			flags.opts = opts
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Options file (.json, .yaml or .yml); built-in defaults when empty")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress progress messages")

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newStatCommand(flags))
	rootCmd.AddCommand(newPlotCommand(flags))
	rootCmd.AddCommand(newProduceCommand(flags))
	rootCmd.AddCommand(newLuisCommand())
	rootCmd.AddCommand(newMigrateCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})

	return rootCmd
}

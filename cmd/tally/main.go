// Package main provides the entry point for the tally tabular toolkit.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tally/config"
	"tally/logger"
	"tally/version"
)

// cfg holds the loaded configuration shared by the subcommands.
var cfg = config.Default()

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tally",
		Short: "tally merges, summarizes and filters delimited data files",
		Long: `tally is a resilient toolkit for delimited data files.
It auto-detects encodings and delimiters, reads files whole or in
memory-bounded chunks, merges many files into one superset-schema table,
computes grouped sums that are invariant to chunk size, and filters rows
against an allow-list of key values.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded
			logger.SetLogPath(cfg.LogPath)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of tally",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tally v%s (%s)\n", version.Version, version.BuildDate)
		},
	})

	rootCmd.AddCommand(newMergeCommand())
	rootCmd.AddCommand(newSummarizeCommand())
	rootCmd.AddCommand(newFilterCommand())
	rootCmd.AddCommand(newServeCommand())

	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

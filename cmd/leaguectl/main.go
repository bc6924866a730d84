package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	url        string
	envFile    string
	backend    string
	sqlitePath string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	rootCmd := &cobra.Command{
		Use:   "leaguectl",
		Short: "Administer the league service",
		Long: `leaguectl seeds, repairs and inspects league data. Commands that only
read can go through a running league service (--url); the others talk to
the document store configured by STORE_BACKEND.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.url, "url", "", "Base URL of a running league service (read commands only)")
	flags.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file first")
	flags.StringVar(&opts.backend, "backend", "", "Override STORE_BACKEND (mongo, sqlite or memory)")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "Override SQLITE_PATH")
	flags.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(
		newSeedCmd(opts),
		newReconcileCmd(opts),
		newLeaderboardCmd(opts),
		newStatsCmd(opts),
		newGroupsCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "leaguectl: %s\n", err)
		os.Exit(1)
	}
}

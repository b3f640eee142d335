// Command outaged watches the utility outage page and notifies subscriber
// groups about outages affecting their addresses.
//
// Usage:
//
//	outaged serve                    # scheduler, ops HTTP server, seed watcher
//	outaged run --task 1             # run one stored task now
//	outaged run --kinds outages_check
//	outaged parse page.html          # print parsed outages as JSON
//	outaged stats                    # print store statistics
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-alert-service/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "outaged",
		Short:         "Utility outage alerts for subscriber groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(), newRunCmd(), newParseCmd(), newStatsCmd())
	return root
}

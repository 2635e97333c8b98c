// Command fleetd runs the fleet maintenance API and its reminder job.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fleetd",
		Short: "Fleet maintenance tracker",
		Long: `fleetd serves the fleet maintenance API: vehicles, maintenance
schedules in triage order, costs, and the daily reminder job.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(remindCmd())
	return rootCmd
}

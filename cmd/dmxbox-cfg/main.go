// Dmxbox-cfg configures the WiFi settings of a dmxbox.
//
// It finds devices over mDNS, shows and edits the hostname, access point
// and existing-network settings, and lists nearby networks through the
// device's live scan.
//
// Usage:
//
//	dmxbox-cfg [command] [flags]
//
// See 'dmxbox-cfg --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dmxbox-cfg",
	Short: "dmxbox WiFi configuration utility",
	Long: `A utility for configuring the WiFi settings of a dmxbox.

Shows and edits the hostname, the access point the box broadcasts and the
existing network it optionally joins, and lists nearby networks using the
box's live scan.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dmxbox-cfg %s\n", version.Full())
	},
}

// Dmxbox-sim simulates a dmxbox on the local machine.
//
// It serves the WiFi configuration endpoint and the live channel with the
// same behavior as the device firmware, so the configuration tools can be
// developed and tested without hardware.
//
// Usage:
//
//	dmxbox-sim [flags]
//
// See 'dmxbox-sim --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/simulator"
	"github.com/muurk/dmxbox/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Simulator flags
var (
	host         string
	port         int
	logLevel     string
	fixturePath  string
	scanInterval time.Duration
	advertise    bool
)

var rootCmd = &cobra.Command{
	Use:   "dmxbox-sim",
	Short: "dmxbox device simulator",
	Long: `Serve a simulated dmxbox: GET/PUT /api/wifi-config and the /api/ws live
channel with scan results.

The device state starts from factory defaults or from a YAML fixture file
listing the configuration and the networks the simulated radio sees.`,
	Example: `  # Factory defaults on port 8080
  dmxbox-sim --port 8080

  # Custom fixture, faster scan rounds, announced over mDNS
  dmxbox-sim --fixture venue.yaml --scan-interval 1s --advertise

  # Verbose logging
  dmxbox-sim --log-level debug`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runSimulator,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	rootCmd.Flags().IntVar(&port, "port", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture with the initial device state (default: factory settings)")
	rootCmd.Flags().DurationVar(&scanInterval, "scan-interval", simulator.DefaultScanInterval, "Delay between scan rounds sent to scanning clients")
	rootCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the simulator over mDNS")

	rootCmd.AddCommand(versionCmd)
}

func runSimulator(cmd *cobra.Command, args []string) error {
	if fixturePath != "" {
		info, err := os.Stat(fixturePath)
		if err != nil {
			return fmt.Errorf("cannot access fixture: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("fixture path is a directory: %s", fixturePath)
		}
	}

	config := &simulator.Config{
		Host:         host,
		Port:         port,
		LogLevel:     logLevel,
		FixturePath:  fixturePath,
		ScanInterval: scanInterval,
		Advertise:    advertise,
	}

	srv, err := simulator.New(config)
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dmxbox-sim %s\n", version.Full())
	},
}

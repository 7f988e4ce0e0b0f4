package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/dmxbox/internal/livechannel"
	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/scan"
	"github.com/muurk/dmxbox/internal/tui"
	"github.com/muurk/dmxbox/internal/wifiform"
)

var (
	scanDuration int
	plainOutput  bool
)

func init() {
	rootCmd.AddCommand(networksCmd)

	networksCmd.Flags().IntVar(&scanDuration, "duration", -1, "Scan window in seconds, 0 until interrupted (default from preferences)")
	networksCmd.Flags().BoolVar(&plainOutput, "plain", false, "Print the final list instead of the interactive view")
}

// networksCmd lists nearby networks through the device's live scan
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List WiFi networks the device can see",
	Long: `Ask the dmxbox to scan for nearby WiFi networks and show them, strongest
first. Each network is listed once with the best signal seen during the scan.

In a terminal the list updates live; pick a network with enter to get the
set-wifi command that joins it.`,
	Example: `  # Live list for the configured scan window
  dmxbox-cfg networks

  # Scan for 5 seconds and print the result
  dmxbox-cfg networks --duration 5 --plain

  # JSON for scripting
  dmxbox-cfg networks --duration 5 --format json`,
	RunE: runNetworks,
}

func runNetworks(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()
	t, err := resolveTarget(cmd, reg)
	if err != nil {
		return err
	}

	window := reg.Preferences.ScanWindow()
	if scanDuration >= 0 {
		window = time.Duration(scanDuration) * time.Second
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	conn, err := livechannel.New(t.BaseURL())
	if err != nil {
		return err
	}
	defer conn.Close()

	controller := scan.NewController(conn)
	conn.SetHandler(func(window uint64, s scan.Sighting) {
		controller.DeliverGeneration(window, s)
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- conn.Run(ctx)
	}()

	if err := waitLive(ctx, conn, time.Duration(httpTimeout)*time.Second); err != nil {
		return fmt.Errorf("live channel at %s: %w", conn.URL(), err)
	}

	observer, err := controller.Subscribe()
	if err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}
	defer observer.Close()

	interactive := !plainOutput && outputFormat != "json" && isTerminal(cmd.OutOrStdout())

	var networks []scan.DiscoveredNetwork
	if interactive {
		networks, err = runNetworksTUI(t.String(), observer, window)
	} else {
		networks, err = collectNetworks(ctx, observer, window, runErr)
	}
	if err != nil {
		return err
	}
	if !conn.Connected() {
		logging.Warn("Live channel dropped during the scan, the list may be incomplete",
			zap.String("device", t.String()))
	}

	if !interactive {
		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), networks)
		}
		return printNetworks(cmd.OutOrStdout(), networks)
	}
	return nil
}

// waitLive waits up to timeout for the first live channel connection. A
// zero timeout waits for ctx.
func waitLive(ctx context.Context, conn *livechannel.Conn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := conn.WaitConnected(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("device did not accept a connection within %s", timeout)
		}
		return err
	}
	return nil
}

// collectNetworks waits for the scan window and returns the final list.
// A zero window waits for ctx.
func collectNetworks(ctx context.Context, observer *scan.Observer, window time.Duration, runErr <-chan error) ([]scan.DiscoveredNetwork, error) {
	if window > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, window)
		defer cancel()
	}

	for {
		select {
		case <-ctx.Done():
			return observer.Networks()
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, livechannel.ErrClosed) {
				return nil, fmt.Errorf("live channel: %w", err)
			}
			return observer.Networks()
		case ranked, ok := <-observer.Updates():
			if !ok {
				return observer.Networks()
			}
			logging.Debug("Network list updated", zap.Int("networks", len(ranked)))
		}
	}
}

func runNetworksTUI(device string, observer *scan.Observer, window time.Duration) ([]scan.DiscoveredNetwork, error) {
	model := tui.NewNetworksModel(device, observer.Updates(), window)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("network list: %w", err)
	}

	m, ok := final.(tui.NetworksModel)
	if !ok {
		return nil, nil
	}
	if n, ok := m.Selected(); ok {
		fmt.Printf("\nTo join %q:\n  dmxbox-cfg set-wifi --join --sta-name %q --sta-security %s --sta-password -\n",
			n.SSID, n.SSID, joinSecurity(n))
	}
	return m.Networks(), nil
}

func joinSecurity(n scan.DiscoveredNetwork) wifiform.SecurityType {
	if st, ok := wifiform.SecurityTypeFor(n.AuthMode); ok {
		return st
	}
	return wifiform.FallbackSecurityType
}

func printNetworks(w io.Writer, networks []scan.DiscoveredNetwork) error {
	if len(networks) == 0 {
		_, err := fmt.Fprintln(w, "No networks found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SSID\tRSSI\tSECURITY")
	for _, n := range networks {
		fmt.Fprintf(tw, "%s\t%d dBm\t%s\n", n.SSID, n.BestRSSI, tui.AuthModeLabel(n.AuthMode))
	}
	return tw.Flush()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

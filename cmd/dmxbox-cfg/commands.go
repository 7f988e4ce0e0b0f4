package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/session"
	"github.com/muurk/dmxbox/internal/tui"
)

var discoverTimeout int

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(showCmd)

	discoverCmd.Flags().IntVar(&discoverTimeout, "scan-timeout", 0, "Discovery timeout in seconds (default from preferences)")
}

// discoverCmd finds devices on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find dmxbox devices on the network",
	Long: `Find dmxbox devices using mDNS/DNS-SD discovery.

Every device that answers is remembered in the registry so later commands
can refer to it by name or nickname.`,
	Example: `  # Browse with the configured timeout
  dmxbox-cfg discover

  # Quick 2-second browse
  dmxbox-cfg discover --scan-timeout 2`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()
	timeout := reg.Preferences.DiscoverTimeoutDuration()
	if discoverTimeout > 0 {
		timeout = time.Duration(discoverTimeout) * time.Second
	}

	out := cmd.OutOrStdout()
	if outputFormat != "json" {
		fmt.Fprintf(out, "Browsing for dmxbox devices (timeout: %s)...\n\n", timeout)
	}

	devices, err := discoverDevices(cmd.Context(), timeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	rememberDevices(reg, devices)
	saveRegistry(reg)

	if outputFormat == "json" {
		return writeJSON(out, devices)
	}

	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Ensure the box is powered on")
		fmt.Fprintln(out, "  - Join the box's own access point (DmxBox_...) or the network it joined")
		fmt.Fprintln(out, "  - Try a longer --scan-timeout")
		fmt.Fprintln(out, "  - Use --device to give the address directly")
		return nil
	}

	fmt.Fprintf(out, "Found %d device(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Fprintf(out, "%d. %s\n", i+1, d.Name)
		if dev := reg.GetDevice(d.Name); dev != nil && dev.Nickname != "" {
			fmt.Fprintf(out, "   Nickname: %s\n", dev.Nickname)
		}
		fmt.Fprintf(out, "   Address:  %s\n", d.Address())
		fmt.Fprintf(out, "   Status:   %s\n", pingStatus(cmd.Context(), target{Name: d.Name, Host: d.IP, Port: d.Port}))
		if len(d.Metadata) > 0 {
			fmt.Fprintf(out, "   Metadata: %v\n", d.Metadata)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Use 'dmxbox-cfg show --device <name>' to view a device's configuration")

	return nil
}

// pingStatus reports whether the device's config endpoint answers.
func pingStatus(ctx context.Context, t target) string {
	if err := t.client().Ping(ctx); err != nil {
		return "unreachable (" + deviceconfig.GetShortErrorMessage(err) + ")"
	}
	return "reachable"
}

// failureTitle names what went wrong for a device error and falls back to
// "<fallback> <device>" for anything else.
func failureTitle(fallback, device string, err error) string {
	switch {
	case deviceconfig.IsNetworkError(err):
		return "Cannot reach " + device
	case deviceconfig.IsHTTPError(err):
		return device + " rejected the request"
	case deviceconfig.IsParseError(err):
		return device + " sent a configuration this tool cannot read"
	}
	return fallback + " " + device
}

// showCmd displays the current device configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the device WiFi configuration",
	Long: `Load the WiFi configuration of a dmxbox and display it the way the
device's settings form presents it.

The form has no separate "auto" channel on the wire: the device stores
automatic channel selection as channel 11, so a stored channel 11 (or any
channel outside 1-13) is shown as auto. Use --format wire to see the
channel number and auth mode exactly as the device stores them.`,
	Example: `  # Show config with auto-discovery
  dmxbox-cfg show

  # Show config for a specific device
  dmxbox-cfg show --device 192.168.4.1

  # The stored document, including the raw channel number
  dmxbox-cfg show --format wire

  # JSON output of the device document for scripting
  dmxbox-cfg show --device dmx-box --format json`,
	RunE: runShow,
}

// capturingEndpoint remembers the last document read through it so the
// compact and JSON views can print the device spelling.
type capturingEndpoint struct {
	session.ConfigEndpoint
	last *deviceconfig.WireConfig
}

func (e *capturingEndpoint) GetConfiguration(ctx context.Context) (*deviceconfig.WireConfig, error) {
	cfg, err := e.ConfigEndpoint.GetConfiguration(ctx)
	if err == nil {
		e.last = cfg
	}
	return cfg, err
}

func runShow(cmd *cobra.Command, args []string) error {
	reg := loadRegistry()
	t, err := resolveTarget(cmd, reg)
	if err != nil {
		return err
	}

	endpoint := &capturingEndpoint{ConfigEndpoint: t.client()}
	sess := session.New(endpoint)
	fields, err := sess.Load(cmd.Context())
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderFailure(tui.TerminalWidth(), failureTitle("Could not load configuration from", t.String(), err), err))
		return fmt.Errorf("failed to get configuration: %w", err)
	}

	if t.Name != "" {
		reg.UpdateDeviceLastSeen(t.Name, t.Host, t.Port)
		reg.SetLastHostName(t.Name, fields.HostName)
		saveRegistry(reg)
	}

	return printConfig(cmd.OutOrStdout(), outputFormat, t.String(), fields, endpoint.last)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

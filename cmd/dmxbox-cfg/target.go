package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/config"
	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/discovery"
	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/version"
)

// Common flags for device commands (persistent on root)
var (
	deviceRef    string
	devicePort   int
	outputFormat string
	httpTimeout  int
	httpRetries  int
	logLevel     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceRef, "device", "", "Device address, mDNS name or remembered nickname (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 80, "Device HTTP port")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, wire, json)")
	rootCmd.PersistentFlags().IntVar(&httpTimeout, "timeout", 10, "HTTP request timeout in seconds")
	rootCmd.PersistentFlags().IntVar(&httpRetries, "http-retries", deviceconfig.DefaultMaxRetries, "Retries for failed configuration reads")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from DMXBOX_LOG_LEVEL")
}

// target is the device a command talks to.
type target struct {
	Name string // registry key; empty for unknown addresses
	Host string
	Port int
}

func (t target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t target) BaseURL() string {
	return "http://" + t.Address()
}

func (t target) String() string {
	if t.Name != "" && t.Name != t.Host {
		return fmt.Sprintf("%s (%s)", t.Name, t.Address())
	}
	return t.Address()
}

func (t target) client() *deviceconfig.Client {
	client := deviceconfig.NewClient(t.Host, t.Port)
	client.UserAgent = version.UserAgent("dmxbox-cfg")
	if httpTimeout > 0 {
		client.SetTimeout(time.Duration(httpTimeout) * time.Second)
	}
	if httpRetries >= 0 {
		client.SetRetry(httpRetries, deviceconfig.DefaultRetryDelay)
	}
	return client
}

// resolveTarget picks the device: the --device flag (matched against the
// registry first), then mDNS discovery, then the most recently seen device.
func resolveTarget(cmd *cobra.Command, reg *config.Registry) (target, error) {
	portSet := cmd.Flags().Changed("port")

	if deviceRef != "" {
		t := target{Host: deviceRef, Port: devicePort}
		if name, d, ok := reg.Lookup(deviceRef); ok && d.LastIP != "" {
			t = target{Name: name, Host: d.LastIP, Port: d.LastPort}
			if portSet || t.Port == 0 {
				t.Port = devicePort
			}
		}
		return t, nil
	}

	if reg.Preferences.AutoDiscover {
		fmt.Fprintln(cmd.ErrOrStderr(), "No device specified, attempting auto-discovery...")
		devices, err := discoverDevices(cmd.Context(), reg.Preferences.DiscoverTimeoutDuration())
		if err != nil {
			return target{}, fmt.Errorf("discovery failed: %w", err)
		}
		rememberDevices(reg, devices)

		switch len(devices) {
		case 0:
		case 1:
			d := devices[0]
			fmt.Fprintf(cmd.ErrOrStderr(), "Found %s\n\n", d)
			return target{Name: d.Name, Host: d.IP, Port: d.Port}, nil
		default:
			for i, d := range devices {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d. %s\n", i+1, d)
			}
			return target{}, fmt.Errorf("multiple devices found. Use --device to choose one")
		}
	}

	if name, d, ok := reg.MostRecent(); ok && d.LastIP != "" {
		port := d.LastPort
		if portSet || port == 0 {
			port = devicePort
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Using last seen device %s (%s)\n\n", name, d.LastIP)
		return target{Name: name, Host: d.LastIP, Port: port}, nil
	}

	return target{}, fmt.Errorf("no devices found. Use --device to specify the address")
}

func discoverDevices(ctx context.Context, timeout time.Duration) ([]*discovery.Device, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForDevices(ctx)
}

func rememberDevices(reg *config.Registry, devices []*discovery.Device) {
	for _, d := range devices {
		reg.UpdateDeviceLastSeen(d.Name, d.IP, d.Port)
	}
}

// registryUnreadable keeps a broken registry file from being overwritten.
var registryUnreadable bool

// loadRegistry never fails a command: a broken registry file is logged
// and replaced by defaults in memory.
func loadRegistry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Ignoring unreadable registry", zap.Error(err))
		registryUnreadable = true
		return config.NewRegistry()
	}
	return reg
}

func saveRegistry(reg *config.Registry) {
	if registryUnreadable {
		return
	}
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save registry", zap.Error(err))
	}
}

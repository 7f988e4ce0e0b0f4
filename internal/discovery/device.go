package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Device is a dmxbox found on the local network.
type Device struct {
	// Name is the advertised instance name, normally the device hostname
	// (e.g., "dmx-box")
	Name string

	// Hostname is the mDNS hostname (e.g., "dmx-box.local.")
	Hostname string

	// IP is the address to connect to, IPv4 when available
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the TXT record, e.g. "path=/api/wifi-config"
	Metadata map[string]string

	// DiscoveredAt is when the device answered
	DiscoveredAt time.Time
}

// String returns a human-readable description.
func (d *Device) String() string {
	return fmt.Sprintf("dmxbox %s (%s) at %s", d.Name, strings.TrimSuffix(d.Hostname, "."), d.Address())
}

// Address is host:port, with IPv6 addresses bracketed.
func (d *Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

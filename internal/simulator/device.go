package simulator

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/scan"
)

// ErrHostNameTooLong is returned by Store for hostnames that do not fit the
// device's 16 byte buffer.
var ErrHostNameTooLong = errors.New("hostname too long")

// Fixture is the YAML file describing the simulated device: its stored
// configuration and the networks it "sees" when scanning.
type Fixture struct {
	HostName    string           `yaml:"hostname"`
	AccessPoint FixtureAP        `yaml:"ap"`
	Station     FixtureStation   `yaml:"sta"`
	Networks    []FixtureNetwork `yaml:"networks"`
}

// FixtureAP is the access point section of a Fixture.
type FixtureAP struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	AuthMode string `yaml:"auth_mode"`
	Channel  int    `yaml:"channel"`
}

// FixtureStation is the station section of a Fixture.
type FixtureStation struct {
	Enabled  bool   `yaml:"enabled"`
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	AuthMode string `yaml:"auth_mode"`
}

// FixtureNetwork is one nearby network reported in every scan round.
type FixtureNetwork struct {
	SSID     string `yaml:"ssid"`
	MAC      string `yaml:"mac"`
	RSSI     int    `yaml:"rssi"`
	AuthMode string `yaml:"auth_mode"`
}

// DefaultFixture mirrors a factory-fresh dmxbox.
func DefaultFixture() *Fixture {
	return &Fixture{
		HostName: "dmx-box",
		AccessPoint: FixtureAP{
			SSID:     "DmxBox_",
			Password: "cue-gobo-fresnel",
			AuthMode: string(deviceconfig.AuthModeWPA2WPA3PSK),
			Channel:  6,
		},
		Station: FixtureStation{
			AuthMode: string(deviceconfig.AuthModeWPA2WPA3PSK),
		},
		Networks: []FixtureNetwork{
			{SSID: "Home", MAC: "a4:2b:b0:10:00:01", RSSI: -70, AuthMode: "WPA2_PSK"},
			{SSID: "Home", MAC: "a4:2b:b0:10:00:02", RSSI: -55, AuthMode: "WPA2_PSK"},
			{SSID: "Cafe", MAC: "3c:84:6a:20:00:01", RSSI: -40, AuthMode: "open"},
			{SSID: "Theatre-FOH", MAC: "f0:9f:c2:30:00:01", RSSI: -62, AuthMode: "WPA2_WPA3_PSK"},
			{SSID: "Theatre-FOH", MAC: "f0:9f:c2:30:00:02", RSSI: -81, AuthMode: "WPA3_PSK"},
		},
	}
}

// LoadFixture reads a fixture file. Missing sections keep their defaults.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f := DefaultFixture()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return f, nil
}

// Device is the in-memory state of the simulated dmxbox.
type Device struct {
	mu       sync.RWMutex
	config   deviceconfig.WireConfig
	networks []scan.Sighting
}

// NewDevice builds a device from f.
func NewDevice(f *Fixture) *Device {
	if f == nil {
		f = DefaultFixture()
	}
	d := &Device{
		config: deviceconfig.WireConfig{
			HostName: f.HostName,
			AccessPoint: deviceconfig.AccessPointConfig{
				Name:     f.AccessPoint.SSID,
				Password: f.AccessPoint.Password,
				AuthMode: deviceAuthMode("ap.auth_mode", f.AccessPoint.AuthMode),
				Channel:  f.AccessPoint.Channel,
			},
			Station: deviceconfig.StationConfig{
				Enabled:  f.Station.Enabled,
				Name:     f.Station.SSID,
				Password: f.Station.Password,
				AuthMode: deviceAuthMode("sta.auth_mode", f.Station.AuthMode),
			},
		},
	}
	for _, n := range f.Networks {
		mode, _ := deviceconfig.ParseAuthMode(n.AuthMode)
		d.networks = append(d.networks, scan.Sighting{
			SSID:     n.SSID,
			MAC:      n.MAC,
			RSSI:     n.RSSI,
			AuthMode: mode,
		})
	}
	return d
}

// deviceAuthMode parses raw the way the firmware does: anything it does not
// recognise is stored as WPA_WPA2_PSK.
func deviceAuthMode(field, raw string) deviceconfig.AuthMode {
	mode, ok := deviceconfig.ParseAuthMode(raw)
	if !ok {
		logging.LogAuthModeFallback(field, raw, string(deviceconfig.AuthModeWPAWPA2PSK))
		return deviceconfig.AuthModeWPAWPA2PSK
	}
	return mode
}

// Config returns the stored configuration.
func (d *Device) Config() deviceconfig.WireConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Store replaces the configuration. The hostname is checked in bytes, like
// the firmware does.
func (d *Device) Store(cfg deviceconfig.WireConfig) error {
	if len(cfg.HostName) > deviceconfig.MaxHostNameLength {
		return ErrHostNameTooLong
	}
	cfg.AccessPoint.AuthMode = deviceAuthMode("ap.auth_mode", string(cfg.AccessPoint.AuthMode))
	cfg.Station.AuthMode = deviceAuthMode("sta.auth_mode", string(cfg.Station.AuthMode))

	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Networks returns the sightings of one scan round.
func (d *Device) Networks() []scan.Sighting {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]scan.Sighting(nil), d.networks...)
}

// SetNetworks replaces the scan results.
func (d *Device) SetNetworks(networks []scan.Sighting) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.networks = append([]scan.Sighting(nil), networks...)
}

package config

import (
	"sort"
	"time"
)

// Registry represents the entire user configuration file.
// It stores what the tools remember about dmxbox devices and the
// operator's preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by mDNS instance name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is the remembered state of a single dmxbox.
type Device struct {
	Nickname     string    `yaml:"nickname,omitempty"`      // User-friendly name
	LastIP       string    `yaml:"last_ip,omitempty"`       // Last known IP address
	LastPort     int       `yaml:"last_port,omitempty"`     // Last known HTTP port
	LastSeen     time.Time `yaml:"last_seen,omitempty"`     // Last discovery/connection time
	LastHostName string    `yaml:"last_hostname,omitempty"` // Hostname reported by the device config
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // Browse mDNS when no --device is given
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	ScanDuration    int  `yaml:"scan_duration"`    // Live scan window in seconds, 0 runs until interrupted
}

const (
	defaultDiscoverTimeout = 5
	defaultScanDuration    = 15
)

func defaultPreferences() *Preferences {
	return &Preferences{
		AutoDiscover:    true,
		DiscoverTimeout: defaultDiscoverTimeout,
		ScanDuration:    defaultScanDuration,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice retrieves device metadata by instance name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the entry for name, creating an empty one if needed.
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{}
	r.Devices[name] = device
	return device
}

// UpdateDeviceLastSeen records where a device was last reached.
func (r *Registry) UpdateDeviceLastSeen(name, ip string, port int) {
	r.updateLastSeen(name, ip, port, time.Now())
}

func (r *Registry) updateLastSeen(name, ip string, port int, at time.Time) {
	device := r.EnsureDevice(name)
	device.LastSeen = at
	device.LastIP = ip
	if port > 0 {
		device.LastPort = port
	}
}

// SetLastHostName records the hostname the device reported in its config.
func (r *Registry) SetLastHostName(name, hostname string) {
	r.EnsureDevice(name).LastHostName = hostname
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(name, nickname string) {
	r.EnsureDevice(name).Nickname = nickname
}

// Lookup resolves a user-supplied reference to a remembered device.
// The reference may be the instance name, the nickname or the last
// known IP address.
func (r *Registry) Lookup(ref string) (string, *Device, bool) {
	if d, ok := r.Devices[ref]; ok {
		return ref, d, true
	}
	for _, name := range r.DeviceNames() {
		d := r.Devices[name]
		if d.Nickname != "" && d.Nickname == ref {
			return name, d, true
		}
		if d.LastIP != "" && d.LastIP == ref {
			return name, d, true
		}
	}
	return "", nil, false
}

// DeviceNames returns the remembered instance names in sorted order.
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MostRecent returns the device seen most recently, if any.
func (r *Registry) MostRecent() (string, *Device, bool) {
	var (
		bestName string
		best     *Device
	)
	for _, name := range r.DeviceNames() {
		d := r.Devices[name]
		if best == nil || d.LastSeen.After(best.LastSeen) {
			bestName, best = name, d
		}
	}
	return bestName, best, best != nil
}

// DiscoverTimeoutDuration returns the configured discovery timeout.
func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	if p == nil || p.DiscoverTimeout <= 0 {
		return defaultDiscoverTimeout * time.Second
	}
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// ScanWindow returns how long a live scan should run. Zero means until
// the caller stops it.
func (p *Preferences) ScanWindow() time.Duration {
	if p == nil {
		return defaultScanDuration * time.Second
	}
	if p.ScanDuration <= 0 {
		return 0
	}
	return time.Duration(p.ScanDuration) * time.Second
}

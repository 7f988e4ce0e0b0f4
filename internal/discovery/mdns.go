package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/logging"
)

const (
	// ServiceType is the mDNS service type a dmxbox advertises
	ServiceType = "_dmxbox._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port
	DefaultPort = 80
)

// Browser is the part of *zeroconf.Resolver the scanner uses.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	// NewBrowser creates the resolver; nil uses zeroconf.NewResolver.
	NewBrowser func() (Browser, error)
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

func (s *Scanner) browser() (Browser, error) {
	if s.NewBrowser != nil {
		return s.NewBrowser()
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return resolver, nil
}

// browse streams parsed devices to found until ctx ends or found returns
// false.
func (s *Scanner) browse(ctx context.Context, found func(*Device) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := s.browser()
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device == nil {
				continue
			}
			logging.Debug("mDNS answer", zap.String("device", device.String()))
			if !found(device) {
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// the resolver closes entries once it sees ctx is done
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

// ScanForDevices discovers every dmxbox that answers within Timeout. A
// device answering more than once is reported once.
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	var mu sync.Mutex
	byName := make(map[string]*Device)

	err := s.browse(ctx, func(d *Device) bool {
		mu.Lock()
		defer mu.Unlock()
		byName[d.Name] = d
		return true
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	devices := make([]*Device, 0, len(byName))
	for _, d := range byName {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// WaitForDevice returns the first device whose instance name or hostname
// matches name.
func (s *Scanner) WaitForDevice(ctx context.Context, name string) (*Device, error) {
	var mu sync.Mutex
	var match *Device

	err := s.browse(ctx, func(d *Device) bool {
		if !d.Matches(name) {
			return true
		}
		mu.Lock()
		defer mu.Unlock()
		if match == nil {
			match = d
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if match == nil {
		return nil, fmt.Errorf("dmxbox %q not found within %s", name, s.Timeout)
	}
	return match, nil
}

// Matches reports whether name refers to d, comparing case-insensitively
// against the instance name and the hostname with or without ".local".
func (d *Device) Matches(name string) bool {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	host := strings.ToLower(strings.TrimSuffix(d.Hostname, "."))
	return name == strings.ToLower(d.Name) ||
		name == host ||
		name+".local" == host
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil for entries without a usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(entry.HostName, "."), ".local")
	}
	if name == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

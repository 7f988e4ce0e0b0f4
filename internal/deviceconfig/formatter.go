package deviceconfig

import (
	"fmt"
	"strings"
)

// MaskPassword hides all but the length of a password.
func MaskPassword(password string) string {
	if password == "" {
		return "(none)"
	}
	return strings.Repeat("*", len(password))
}

// Summary returns a one-line summary of the configuration
func (wc *WireConfig) Summary() string {
	sta := "off"
	if wc.Station.Enabled {
		sta = wc.Station.Name
	}
	return fmt.Sprintf("%s: AP %q ch %d (%s), joins %s", wc.HostName, wc.AccessPoint.Name, wc.AccessPoint.Channel, wc.AccessPoint.AuthMode.Identifier(), sta)
}

// FormatAccessPoint returns a formatted string with the access-point section
func (wc *WireConfig) FormatAccessPoint() string {
	var b strings.Builder

	b.WriteString("=== Access Point ===\n")
	b.WriteString(fmt.Sprintf("SSID:      %s\n", wc.AccessPoint.Name))
	b.WriteString(fmt.Sprintf("Security:  %s\n", wc.AccessPoint.AuthMode.Identifier()))
	b.WriteString(fmt.Sprintf("Password:  %s\n", MaskPassword(wc.AccessPoint.Password)))
	b.WriteString(fmt.Sprintf("Channel:   %d\n", wc.AccessPoint.Channel))

	return b.String()
}

// FormatStation returns a formatted string with the existing-network section
func (wc *WireConfig) FormatStation() string {
	var b strings.Builder

	b.WriteString("=== Existing Network ===\n")
	if !wc.Station.Enabled {
		b.WriteString("Join:      disabled\n")
		return b.String()
	}
	b.WriteString("Join:      enabled\n")
	b.WriteString(fmt.Sprintf("SSID:      %s\n", wc.Station.Name))
	b.WriteString(fmt.Sprintf("Security:  %s\n", wc.Station.AuthMode.Identifier()))
	b.WriteString(fmt.Sprintf("Password:  %s\n", MaskPassword(wc.Station.Password)))

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (wc *WireConfig) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Host:    %s\n", wc.HostName))
	b.WriteString(fmt.Sprintf("AP:      %s [%s] ch %d\n", wc.AccessPoint.Name, wc.AccessPoint.AuthMode.Identifier(), wc.AccessPoint.Channel))
	if wc.Station.Enabled {
		b.WriteString(fmt.Sprintf("Station: %s [%s]\n", wc.Station.Name, wc.Station.AuthMode.Identifier()))
	} else {
		b.WriteString("Station: disabled\n")
	}

	return b.String()
}

// FormatDetailed returns all configuration sections
func (wc *WireConfig) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                 DMXBOX WIFI CONFIGURATION                      ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Hostname: %s\n\n", wc.HostName))
	b.WriteString(wc.FormatAccessPoint())
	b.WriteString("\n")
	b.WriteString(wc.FormatStation())

	return b.String()
}

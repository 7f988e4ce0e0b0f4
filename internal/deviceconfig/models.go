package deviceconfig

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// MaxHostNameLength is the longest hostname the firmware stores
	// (16-byte buffer including the NUL terminator).
	MaxHostNameLength = 15

	// MinChannel and MaxChannel bound the 2.4 GHz channels the device accepts.
	MinChannel = 1
	MaxChannel = 13

	// DefaultChannel is used when the operator leaves the channel on "auto".
	DefaultChannel = 11

	// ConfigPath is the device endpoint serving the WiFi configuration document.
	ConfigPath = "/api/wifi-config"
)

// AuthMode is the device-level security protocol identifier.
// Values hold the device's wire spelling.
type AuthMode string

const (
	AuthModeOpen        AuthMode = "open"
	AuthModeWEP         AuthMode = "WEP"
	AuthModeWPAPSK      AuthMode = "WPA_PSK"
	AuthModeWPAWPA2PSK  AuthMode = "WPA_WPA2_PSK"
	AuthModeWPA2PSK     AuthMode = "WPA2_PSK"
	AuthModeWPA2WPA3PSK AuthMode = "WPA2_WPA3_PSK"
	AuthModeWPA3PSK     AuthMode = "WPA3_PSK"
)

// AuthModes lists every auth mode the device is known to report.
var AuthModes = []AuthMode{
	AuthModeOpen,
	AuthModeWEP,
	AuthModeWPAPSK,
	AuthModeWPAWPA2PSK,
	AuthModeWPA2PSK,
	AuthModeWPA2WPA3PSK,
	AuthModeWPA3PSK,
}

var authModeIdentifiers = map[AuthMode]string{
	AuthModeOpen:        "open",
	AuthModeWEP:         "wep",
	AuthModeWPAPSK:      "wpa-psk",
	AuthModeWPAWPA2PSK:  "wpa-wpa2-psk",
	AuthModeWPA2PSK:     "wpa2-psk",
	AuthModeWPA2WPA3PSK: "wpa2-wpa3-psk",
	AuthModeWPA3PSK:     "wpa3-psk",
}

// ParseAuthMode accepts both the device spelling ("WPA2_PSK") and the
// lower-case hyphenated identifier ("wpa2-psk"). The boolean is false for
// anything outside the known set.
func ParseAuthMode(s string) (AuthMode, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, mode := range AuthModes {
		if strings.ToUpper(string(mode)) == normalized {
			return mode, true
		}
	}
	return AuthMode(s), false
}

// Known reports whether the mode is one of AuthModes.
func (m AuthMode) Known() bool {
	_, ok := authModeIdentifiers[m]
	return ok
}

// Identifier returns the lower-case hyphenated name, e.g. "wpa2-wpa3-psk".
// Unknown modes return their raw value.
func (m AuthMode) Identifier() string {
	if id, ok := authModeIdentifiers[m]; ok {
		return id
	}
	return string(m)
}

// UnmarshalJSON normalizes either spelling to the device spelling.
// Unknown values are kept verbatim so callers can detect them with Known.
func (m *AuthMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("auth mode must be a string: %w", err)
	}
	mode, _ := ParseAuthMode(raw)
	*m = mode
	return nil
}

// WireConfig is the device's configuration document served by GET and
// accepted by PUT on ConfigPath.
type WireConfig struct {
	HostName    string            `json:"hostname"`
	AccessPoint AccessPointConfig `json:"ap"`
	Station     StationConfig     `json:"sta"`
}

// AccessPointConfig holds the network the device broadcasts itself.
type AccessPointConfig struct {
	Name     string   `json:"ssid"`
	Password string   `json:"password"`
	AuthMode AuthMode `json:"auth_mode"`
	Channel  int      `json:"channel"`
}

// StationConfig holds the existing network the device optionally joins.
type StationConfig struct {
	Enabled  bool     `json:"enabled"`
	Name     string   `json:"ssid"`
	Password string   `json:"password"`
	AuthMode AuthMode `json:"auth_mode"`
}

// ParseWireConfig decodes a configuration document. Trailing data after the
// JSON object is ignored.
func ParseWireConfig(data []byte) (*WireConfig, error) {
	cleanData, err := CleanJSONResponse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to clean JSON response: %w", err)
	}

	var config WireConfig
	if err := json.Unmarshal(cleanData, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wifi config: %w", err)
	}

	return &config, nil
}

// CleanJSONResponse extracts the first complete JSON object from data.
// The firmware's HTTP server occasionally pads responses, so anything after
// the closing brace is dropped.
func CleanJSONResponse(data []byte) ([]byte, error) {
	start := -1
	for i, b := range data {
		if b == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(data); i++ {
		b := data[i]

		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}

		if b == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if b == '{' {
				depth++
			} else if b == '}' {
				depth--
				if depth == 0 {
					return data[start : i+1], nil
				}
			}
		}
	}

	return nil, fmt.Errorf("unclosed JSON object in response")
}

// ValidChannel reports whether ch is a channel the device accepts.
func ValidChannel(ch int) bool {
	return ch >= MinChannel && ch <= MaxChannel
}

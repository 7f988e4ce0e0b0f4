package livechannel

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/scan"
)

// Path is the websocket endpoint on the device.
const Path = "/api/ws"

// Message types.
const (
	TypeStartScan        = "start-scan"
	TypeStopScan         = "stop-scan"
	TypeAccessPointFound = "access-point-found"

	// Older firmware names.
	TypeLegacyStartScan        = "settings/startApScan"
	TypeLegacyStopScan         = "settings/stopApScan"
	TypeLegacyAccessPointFound = "settings/apFound"
)

// Message is one JSON frame on the live channel. Only Type is set on control
// messages.
type Message struct {
	Type     string                `json:"type"`
	SSID     string                `json:"ssid,omitempty"`
	MAC      string                `json:"mac,omitempty"`
	BSSID    string                `json:"bssid,omitempty"`
	RSSI     int                   `json:"rssi,omitempty"`
	AuthMode deviceconfig.AuthMode `json:"authMode,omitempty"`
}

// StartScan is the control message that enables sightings.
func StartScan() Message { return Message{Type: TypeStartScan} }

// StopScan is the control message that disables sightings.
func StopScan() Message { return Message{Type: TypeStopScan} }

// AccessPointFound builds the event the device sends for one sighting.
func AccessPointFound(s scan.Sighting) Message {
	return Message{
		Type:     TypeAccessPointFound,
		SSID:     s.SSID,
		MAC:      s.MAC,
		RSSI:     s.RSSI,
		AuthMode: s.AuthMode,
	}
}

// DecodeMessage parses one frame.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode live message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("live message has no type")
	}
	return msg, nil
}

// Sighting converts an access-point-found event. The boolean is false for
// every other message type.
func (m Message) Sighting() (scan.Sighting, bool) {
	switch m.Type {
	case TypeAccessPointFound, TypeLegacyAccessPointFound:
	default:
		return scan.Sighting{}, false
	}
	mac := m.MAC
	if mac == "" {
		mac = m.BSSID
	}
	return scan.Sighting{
		SSID:     m.SSID,
		MAC:      mac,
		RSSI:     m.RSSI,
		AuthMode: m.AuthMode,
	}, true
}

// IsStartScan reports whether m asks the device to start scanning.
func (m Message) IsStartScan() bool {
	return m.Type == TypeStartScan || m.Type == TypeLegacyStartScan
}

// IsStopScan reports whether m asks the device to stop scanning.
func (m Message) IsStopScan() bool {
	return m.Type == TypeStopScan || m.Type == TypeLegacyStopScan
}

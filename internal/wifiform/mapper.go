package wifiform

import (
	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/logging"
)

// FallbackSecurityType is used for auth modes that have no entry in the
// forward table, including modes the firmware may add later.
const FallbackSecurityType = SecurityWPA23

// FallbackRecorder is told about every auth mode that had to fall back.
// field is the wire path ("ap.auth_mode" or "sta.auth_mode").
type FallbackRecorder func(field string, mode deviceconfig.AuthMode, fallback SecurityType)

// LogFallback records fallbacks as warnings on the package logger.
func LogFallback(field string, mode deviceconfig.AuthMode, fallback SecurityType) {
	logging.LogAuthModeFallback(field, string(mode), string(fallback))
}

// Mapper converts between the wire document and form fields.
// The zero value maps silently; set OnFallback to observe fallbacks.
type Mapper struct {
	OnFallback FallbackRecorder
}

// DefaultMapper logs fallbacks.
var DefaultMapper = Mapper{OnFallback: LogFallback}

// ToFields maps a wire document with DefaultMapper.
func ToFields(w deviceconfig.WireConfig) FormFields {
	return DefaultMapper.ToFields(w)
}

// ToWire maps form fields with DefaultMapper.
func ToWire(f FormFields) deviceconfig.WireConfig {
	return DefaultMapper.ToWire(f)
}

var forwardSecurity = map[deviceconfig.AuthMode]SecurityType{
	deviceconfig.AuthModeOpen:        SecurityNone,
	deviceconfig.AuthModeWEP:         SecurityWEP,
	deviceconfig.AuthModeWPAPSK:      SecurityWPA,
	deviceconfig.AuthModeWPAWPA2PSK:  SecurityWPA,
	deviceconfig.AuthModeWPA2PSK:     SecurityWPA23,
	deviceconfig.AuthModeWPA2WPA3PSK: SecurityWPA23,
	deviceconfig.AuthModeWPA3PSK:     SecurityWPA3,
}

// SecurityTypeFor returns the form category of a device auth mode. The
// boolean is false when the mode is unmapped and FallbackSecurityType was
// returned.
func SecurityTypeFor(mode deviceconfig.AuthMode) (SecurityType, bool) {
	if t, ok := forwardSecurity[mode]; ok {
		return t, true
	}
	return FallbackSecurityType, false
}

// AuthModeFor is the reverse mapping. It is single valued, so wpa-psk and
// wpa2-psk are never produced.
func AuthModeFor(t SecurityType) deviceconfig.AuthMode {
	switch t {
	case SecurityNone:
		return deviceconfig.AuthModeOpen
	case SecurityWEP:
		return deviceconfig.AuthModeWEP
	case SecurityWPA:
		return deviceconfig.AuthModeWPAWPA2PSK
	case SecurityWPA3:
		return deviceconfig.AuthModeWPA3PSK
	default:
		return deviceconfig.AuthModeWPA2WPA3PSK
	}
}

// ChannelFromWire returns the form channel for a wire channel. Anything
// outside 1..13 becomes ChannelAuto, and so does DefaultChannel since that is
// what ChannelAuto is stored as; otherwise a second round trip would turn
// "auto" into "11".
func ChannelFromWire(ch int) Channel {
	if !deviceconfig.ValidChannel(ch) || ch == deviceconfig.DefaultChannel {
		return ChannelAuto
	}
	return ChannelNumber(ch)
}

// WireChannel returns the integer stored on the device. ChannelAuto and
// unparsable values become deviceconfig.DefaultChannel.
func (c Channel) WireChannel() int {
	if n, ok := c.Number(); ok {
		return n
	}
	return deviceconfig.DefaultChannel
}

func (m Mapper) security(field string, mode deviceconfig.AuthMode, password string) SecuritySelection {
	t, ok := SecurityTypeFor(mode)
	if !ok && m.OnFallback != nil {
		m.OnFallback(field, mode, t)
	}
	return SecuritySelection{Type: t, Password: password}
}

// ToFields maps the device document into editable fields. Passwords are
// carried for every security type so an unmodified form writes them back.
func (m Mapper) ToFields(w deviceconfig.WireConfig) FormFields {
	apSecurity := m.security("ap.auth_mode", w.AccessPoint.AuthMode, w.AccessPoint.Password)
	staSecurity := m.security("sta.auth_mode", w.Station.AuthMode, w.Station.Password)

	var existing ExistingNetwork
	if w.Station.Enabled {
		existing = Enabled{Name: w.Station.Name, Security: staSecurity}
	} else {
		existing = Disabled{Name: w.Station.Name, Security: staSecurity}
	}

	return FormFields{
		HostName: w.HostName,
		AccessPoint: AccessPointFields{
			Name:     w.AccessPoint.Name,
			Security: apSecurity,
			Channel:  ChannelFromWire(w.AccessPoint.Channel),
		},
		ExistingNetwork: existing,
	}
}

// ToWire maps form fields into the document sent with PUT. It does not
// validate; run Validate first.
func (m Mapper) ToWire(f FormFields) deviceconfig.WireConfig {
	existing := f.existing()
	staName, staSecurity := existing.Network()

	return deviceconfig.WireConfig{
		HostName: f.HostName,
		AccessPoint: deviceconfig.AccessPointConfig{
			Name:     f.AccessPoint.Name,
			Password: f.AccessPoint.Security.Password,
			AuthMode: AuthModeFor(f.AccessPoint.Security.Type),
			Channel:  f.AccessPoint.Channel.WireChannel(),
		},
		Station: deviceconfig.StationConfig{
			Enabled:  existing.IsEnabled(),
			Name:     staName,
			Password: staSecurity.Password,
			AuthMode: AuthModeFor(staSecurity.Type),
		},
	}
}

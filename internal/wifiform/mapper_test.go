package wifiform

import (
	"testing"

	"github.com/muurk/dmxbox/internal/deviceconfig"
)

func sampleWire() deviceconfig.WireConfig {
	return deviceconfig.WireConfig{
		HostName: "dmxbox",
		AccessPoint: deviceconfig.AccessPointConfig{
			Name:     "dmxbox-ap",
			Password: "apsecret1",
			AuthMode: deviceconfig.AuthModeWPA2WPA3PSK,
			Channel:  6,
		},
		Station: deviceconfig.StationConfig{
			Enabled:  true,
			Name:     "Home",
			Password: "homesecret",
			AuthMode: deviceconfig.AuthModeWPAWPA2PSK,
		},
	}
}

func TestSecurityTypeFor(t *testing.T) {
	tests := []struct {
		mode     deviceconfig.AuthMode
		want     SecurityType
		wantKnow bool
	}{
		{deviceconfig.AuthModeOpen, SecurityNone, true},
		{deviceconfig.AuthModeWEP, SecurityWEP, true},
		{deviceconfig.AuthModeWPAPSK, SecurityWPA, true},
		{deviceconfig.AuthModeWPAWPA2PSK, SecurityWPA, true},
		{deviceconfig.AuthModeWPA2PSK, SecurityWPA23, true},
		{deviceconfig.AuthModeWPA2WPA3PSK, SecurityWPA23, true},
		{deviceconfig.AuthModeWPA3PSK, SecurityWPA3, true},
		{deviceconfig.AuthMode("WAPI_PSK"), SecurityWPA23, false},
		{deviceconfig.AuthMode(""), SecurityWPA23, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, ok := SecurityTypeFor(tt.mode)
			if got != tt.want || ok != tt.wantKnow {
				t.Errorf("SecurityTypeFor(%q) = %q, %v; want %q, %v", tt.mode, got, ok, tt.want, tt.wantKnow)
			}
		})
	}
}

func TestAuthModeFor(t *testing.T) {
	tests := []struct {
		typ  SecurityType
		want deviceconfig.AuthMode
	}{
		{SecurityNone, deviceconfig.AuthModeOpen},
		{SecurityWEP, deviceconfig.AuthModeWEP},
		{SecurityWPA, deviceconfig.AuthModeWPAWPA2PSK},
		{SecurityWPA23, deviceconfig.AuthModeWPA2WPA3PSK},
		{SecurityWPA3, deviceconfig.AuthModeWPA3PSK},
		{SecurityType("bogus"), deviceconfig.AuthModeWPA2WPA3PSK},
	}

	for _, tt := range tests {
		if got := AuthModeFor(tt.typ); got != tt.want {
			t.Errorf("AuthModeFor(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestChannelMapping(t *testing.T) {
	tests := []struct {
		wire     int
		channel  Channel
		wireBack int
	}{
		{1, "1", 1},
		{6, "6", 6},
		{13, "13", 13},
		{11, ChannelAuto, 11},
		{0, ChannelAuto, deviceconfig.DefaultChannel},
		{14, ChannelAuto, deviceconfig.DefaultChannel},
		{-3, ChannelAuto, deviceconfig.DefaultChannel},
	}

	for _, tt := range tests {
		got := ChannelFromWire(tt.wire)
		if got != tt.channel {
			t.Errorf("ChannelFromWire(%d) = %q, want %q", tt.wire, got, tt.channel)
		}
		if back := got.WireChannel(); back != tt.wireBack {
			t.Errorf("Channel(%q).WireChannel() = %d, want %d", got, back, tt.wireBack)
		}
	}

	if ChannelAuto.WireChannel() != 11 {
		t.Errorf("auto should map to channel 11")
	}
	for _, c := range []Channel{"06", "+6", "x", ""} {
		if c.Valid() {
			t.Errorf("Channel(%q) should not be valid", c)
		}
	}
	if len(Channels) != 14 || Channels[0] != ChannelAuto || Channels[13] != "13" {
		t.Errorf("Channels = %v", Channels)
	}
}

func TestToFields(t *testing.T) {
	f := Mapper{}.ToFields(sampleWire())

	if f.HostName != "dmxbox" {
		t.Errorf("HostName = %q", f.HostName)
	}
	if f.AccessPoint.Name != "dmxbox-ap" || f.AccessPoint.Channel != "6" {
		t.Errorf("AccessPoint = %+v", f.AccessPoint)
	}
	if f.AccessPoint.Security != (SecuritySelection{Type: SecurityWPA23, Password: "apsecret1"}) {
		t.Errorf("AccessPoint.Security = %+v", f.AccessPoint.Security)
	}

	enabled, ok := f.ExistingNetwork.(Enabled)
	if !ok {
		t.Fatalf("ExistingNetwork = %T, want Enabled", f.ExistingNetwork)
	}
	if enabled.Name != "Home" || enabled.Security.Type != SecurityWPA || enabled.Security.Password != "homesecret" {
		t.Errorf("Enabled = %+v", enabled)
	}
}

func TestToFieldsDisabledStationKeepsValues(t *testing.T) {
	w := sampleWire()
	w.Station.Enabled = false

	f := Mapper{}.ToFields(w)
	disabled, ok := f.ExistingNetwork.(Disabled)
	if !ok {
		t.Fatalf("ExistingNetwork = %T, want Disabled", f.ExistingNetwork)
	}
	if disabled.Name != "Home" || disabled.Security.Password != "homesecret" {
		t.Errorf("Disabled = %+v", disabled)
	}
}

func TestToFieldsRecordsFallback(t *testing.T) {
	type fallback struct {
		field string
		mode  deviceconfig.AuthMode
	}
	var got []fallback

	m := Mapper{OnFallback: func(field string, mode deviceconfig.AuthMode, to SecurityType) {
		if to != SecurityWPA23 {
			t.Errorf("fallback target = %q", to)
		}
		got = append(got, fallback{field, mode})
	}}

	w := sampleWire()
	w.Station.AuthMode = deviceconfig.AuthMode("OWE")
	f := m.ToFields(w)

	if len(got) != 1 || got[0].field != "sta.auth_mode" || got[0].mode != "OWE" {
		t.Fatalf("fallbacks = %+v", got)
	}
	_, sec := f.ExistingNetwork.Network()
	if sec.Type != SecurityWPA23 {
		t.Errorf("station type = %q, want wpa23", sec.Type)
	}
}

func TestToWireNilExistingNetwork(t *testing.T) {
	w := ToWire(FormFields{
		HostName: "box",
		AccessPoint: AccessPointFields{
			Name:     "ap",
			Security: SecuritySelection{Type: SecurityNone},
			Channel:  ChannelAuto,
		},
	})

	if w.Station.Enabled {
		t.Error("station should be disabled")
	}
	if w.AccessPoint.AuthMode != deviceconfig.AuthModeOpen {
		t.Errorf("ap auth = %q", w.AccessPoint.AuthMode)
	}
	if w.AccessPoint.Channel != deviceconfig.DefaultChannel {
		t.Errorf("ap channel = %d", w.AccessPoint.Channel)
	}
}

// Wire documents whose auth modes are already in reverse-canonical form and
// whose channels are in range.
func canonicalWires() []deviceconfig.WireConfig {
	var wires []deviceconfig.WireConfig
	canonical := []deviceconfig.AuthMode{
		deviceconfig.AuthModeOpen,
		deviceconfig.AuthModeWEP,
		deviceconfig.AuthModeWPAWPA2PSK,
		deviceconfig.AuthModeWPA2WPA3PSK,
		deviceconfig.AuthModeWPA3PSK,
	}
	for i, mode := range canonical {
		for _, enabled := range []bool{true, false} {
			w := sampleWire()
			w.AccessPoint.AuthMode = mode
			w.Station.AuthMode = canonical[(i+2)%len(canonical)]
			w.Station.Enabled = enabled
			w.AccessPoint.Channel = 1 + (i*3)%13
			wires = append(wires, w)
		}
	}
	return wires
}

func TestRoundTrip(t *testing.T) {
	m := Mapper{}
	for _, w := range canonicalWires() {
		got := m.ToWire(m.ToFields(w))
		if got != w {
			t.Errorf("round trip changed document:\n got %+v\nwant %+v", got, w)
		}
	}
}

func TestRoundTripPreservesFieldsForCollapsedModes(t *testing.T) {
	m := Mapper{}
	w := sampleWire()
	w.AccessPoint.AuthMode = deviceconfig.AuthModeWPA2PSK
	w.Station.AuthMode = deviceconfig.AuthModeWPAPSK

	got := m.ToWire(m.ToFields(w))

	if got.HostName != w.HostName ||
		got.AccessPoint.Name != w.AccessPoint.Name ||
		got.AccessPoint.Password != w.AccessPoint.Password ||
		got.AccessPoint.Channel != w.AccessPoint.Channel ||
		got.Station.Enabled != w.Station.Enabled ||
		got.Station.Name != w.Station.Name ||
		got.Station.Password != w.Station.Password {
		t.Errorf("non-auth fields changed:\n got %+v\nwant %+v", got, w)
	}
	// collapsed modes come back in canonical form
	if got.AccessPoint.AuthMode != deviceconfig.AuthModeWPA2WPA3PSK {
		t.Errorf("ap auth = %q", got.AccessPoint.AuthMode)
	}
	if got.Station.AuthMode != deviceconfig.AuthModeWPAWPA2PSK {
		t.Errorf("sta auth = %q", got.Station.AuthMode)
	}
}

func TestIdempotentMapping(t *testing.T) {
	m := Mapper{}
	wires := canonicalWires()

	odd := sampleWire()
	odd.AccessPoint.AuthMode = deviceconfig.AuthModeWPAPSK
	odd.AccessPoint.Channel = 42
	odd.Station.AuthMode = deviceconfig.AuthMode("SOMETHING_NEW")
	odd.Station.Enabled = false
	wires = append(wires, odd, deviceconfig.WireConfig{})

	for _, w := range wires {
		once := m.ToFields(w)
		twice := m.ToFields(m.ToWire(once))
		if once != twice {
			t.Errorf("mapping not idempotent for %+v:\n once %+v\ntwice %+v", w, once, twice)
		}
	}
}

func TestSetExistingNetworkEnabled(t *testing.T) {
	sec := SecuritySelection{Type: SecurityWPA3, Password: "password123"}
	on := SetExistingNetworkEnabled(Disabled{Name: "Home", Security: sec}, true)
	if on != (Enabled{Name: "Home", Security: sec}) {
		t.Errorf("enable = %+v", on)
	}
	off := SetExistingNetworkEnabled(on, false)
	if off != (Disabled{Name: "Home", Security: sec}) {
		t.Errorf("disable = %+v", off)
	}
	if SetExistingNetworkEnabled(nil, true) != (Enabled{}) {
		t.Error("nil should enable to empty network")
	}
}

package discovery

import "testing"

func TestDeviceString(t *testing.T) {
	d := &Device{Name: "dmx-box", Hostname: "dmx-box.local.", IP: "192.168.4.1", Port: 80}

	want := "dmxbox dmx-box (dmx-box.local) at 192.168.4.1:80"
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
}

func TestDeviceBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{"standard port", &Device{IP: "192.168.4.1", Port: 80}, "http://192.168.4.1:80"},
		{"custom port", &Device{IP: "10.0.0.5", Port: 8080}, "http://10.0.0.5:8080"},
		{"ipv6", &Device{IP: "fe80::1", Port: 80}, "http://[fe80::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("BaseURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeviceMatches(t *testing.T) {
	d := &Device{Name: "Stage-Left", Hostname: "stage-left.local."}

	for _, name := range []string{"stage-left", "Stage-Left", "stage-left.local", "stage-left.local."} {
		if !d.Matches(name) {
			t.Errorf("Matches(%q) = false", name)
		}
	}
	for _, name := range []string{"stage", "left", ""} {
		if d.Matches(name) {
			t.Errorf("Matches(%q) = true", name)
		}
	}
}

func TestDeviceGetMetadataNilMap(t *testing.T) {
	d := &Device{}
	if got := d.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() = %q", got)
	}
}

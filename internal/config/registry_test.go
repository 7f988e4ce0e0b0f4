package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if filepath.Base(configDir) != "dmxbox" {
		t.Errorf("GetConfigDir() = %v, should end in 'dmxbox'", configDir)
	}
	if runtime.GOOS == "linux" && configDir != filepath.Join("/tmp/xdg", "dmxbox") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/dmxbox", configDir)
	}
}

func TestGetConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %v, want %v", got, dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if path != filepath.Join(dir, "config.yaml") {
		t.Errorf("GetConfigPath() = %v", path)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if !reg.Preferences.AutoDiscover {
		t.Error("AutoDiscover should be true by default")
	}
	if got := reg.Preferences.DiscoverTimeoutDuration(); got != 5*time.Second {
		t.Errorf("DiscoverTimeoutDuration() = %v, want 5s", got)
	}
	if got := reg.Preferences.ScanWindow(); got != 15*time.Second {
		t.Errorf("ScanWindow() = %v, want 15s", got)
	}
}

func TestPreferencesDurations(t *testing.T) {
	tests := []struct {
		name        string
		prefs       *Preferences
		wantTimeout time.Duration
		wantWindow  time.Duration
	}{
		{"nil", nil, 5 * time.Second, 15 * time.Second},
		{"zero values", &Preferences{}, 5 * time.Second, 0},
		{"explicit", &Preferences{DiscoverTimeout: 2, ScanDuration: 30}, 2 * time.Second, 30 * time.Second},
		{"negative", &Preferences{DiscoverTimeout: -1, ScanDuration: -1}, 5 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prefs.DiscoverTimeoutDuration(); got != tt.wantTimeout {
				t.Errorf("DiscoverTimeoutDuration() = %v, want %v", got, tt.wantTimeout)
			}
			if got := tt.prefs.ScanWindow(); got != tt.wantWindow {
				t.Errorf("ScanWindow() = %v, want %v", got, tt.wantWindow)
			}
		})
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := &Registry{Version: 1}

	first := reg.EnsureDevice("dmx-box")
	if first == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	first.Nickname = "FOH"

	if again := reg.EnsureDevice("dmx-box"); again != first {
		t.Error("EnsureDevice() should return the existing entry")
	}
	if reg.GetDevice("missing") != nil {
		t.Error("GetDevice() should return nil for unknown names")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reg.updateLastSeen("dmx-box", "192.168.4.1", 80, at)
	reg.updateLastSeen("dmx-box", "192.168.4.2", 0, at.Add(time.Minute))

	d := reg.GetDevice("dmx-box")
	if d.LastIP != "192.168.4.2" {
		t.Errorf("LastIP = %q, want 192.168.4.2", d.LastIP)
	}
	if d.LastPort != 80 {
		t.Errorf("LastPort = %d, want 80 (zero port keeps previous)", d.LastPort)
	}
	if !d.LastSeen.Equal(at.Add(time.Minute)) {
		t.Errorf("LastSeen = %v", d.LastSeen)
	}

	before := time.Now()
	reg.UpdateDeviceLastSeen("stage-left", "10.0.0.7", 8080)
	if reg.GetDevice("stage-left").LastSeen.Before(before) {
		t.Error("UpdateDeviceLastSeen() should stamp the current time")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.updateLastSeen("dmx-box", "192.168.4.1", 80, time.Unix(100, 0))
	reg.updateLastSeen("stage-left", "10.0.0.7", 80, time.Unix(200, 0))
	reg.SetDeviceNickname("stage-left", "SL")
	reg.SetLastHostName("stage-left", "sl-box")

	tests := []struct {
		ref      string
		wantName string
		wantOK   bool
	}{
		{"dmx-box", "dmx-box", true},
		{"SL", "stage-left", true},
		{"192.168.4.1", "dmx-box", true},
		{"nobody", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			name, d, ok := reg.Lookup(tt.ref)
			if ok != tt.wantOK || name != tt.wantName {
				t.Fatalf("Lookup(%q) = %q, %v; want %q, %v", tt.ref, name, ok, tt.wantName, tt.wantOK)
			}
			if ok && d == nil {
				t.Error("Lookup() returned ok with nil device")
			}
		})
	}

	name, d, ok := reg.MostRecent()
	if !ok || name != "stage-left" || d.LastHostName != "sl-box" {
		t.Errorf("MostRecent() = %q, %+v, %v", name, d, ok)
	}

	if _, _, ok := NewRegistry().MostRecent(); ok {
		t.Error("MostRecent() on empty registry should report false")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.updateLastSeen("dmx-box", "192.168.4.1", 80, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	reg.SetDeviceNickname("dmx-box", "FOH rack")
	reg.SetLastHostName("dmx-box", "foh")
	reg.Preferences.ScanDuration = 0

	if err := reg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	d := loaded.GetDevice("dmx-box")
	if d == nil {
		t.Fatal("device missing after reload")
	}
	if d.Nickname != "FOH rack" || d.LastIP != "192.168.4.1" || d.LastPort != 80 || d.LastHostName != "foh" {
		t.Errorf("reloaded device = %+v", d)
	}
	if loaded.Preferences.ScanDuration != 0 {
		t.Errorf("ScanDuration = %d, want 0", loaded.Preferences.ScanDuration)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file gives defaults", filepath.Join(dir, "absent.yaml"), ""},
		{"minimal", write("minimal.yaml", "version: 1\n"), ""},
		{"bad version", write("v2.yaml", "version: 2\n"), "unsupported config version"},
		{"bad yaml", write("bad.yaml", "version: [\n"), "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := LoadFile(tt.path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadFile() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if reg.Devices == nil || reg.Preferences == nil {
				t.Errorf("LoadFile() should fill defaults, got %+v", reg)
			}
		})
	}
}

func TestGlobalRegistry(t *testing.T) {
	t.Setenv(ConfigDirEnv, t.TempDir())

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	reg.SetDeviceNickname("dmx-box", "FOH")
	if err := SaveGlobal(); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	reg, err = ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if d := reg.GetDevice("dmx-box"); d == nil || d.Nickname != "FOH" {
		t.Errorf("reloaded device = %+v", d)
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("dmx-box")
	}
}

package livechannel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/scan"
)

// fakeDevice answers start-scan with a fixed batch of sightings.
type fakeDevice struct {
	t         *testing.T
	upgrader  websocket.Upgrader
	sightings []scan.Sighting
	// dropFirst closes the first connection right after start-scan.
	dropFirst bool

	mu       sync.Mutex
	received []string
	conns    int
	gotStart chan struct{}
}

func newFakeDevice(t *testing.T, sightings []scan.Sighting) *fakeDevice {
	return &fakeDevice{t: t, sightings: sightings, gotStart: make(chan struct{}, 8)}
}

func (d *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Path {
		http.NotFound(w, r)
		return
	}
	ws, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.t.Errorf("upgrade: %v", err)
		return
	}
	defer ws.Close()

	d.mu.Lock()
	d.conns++
	connNum := d.conns
	d.mu.Unlock()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			continue
		}
		d.mu.Lock()
		d.received = append(d.received, msg.Type)
		d.mu.Unlock()

		if !msg.IsStartScan() {
			continue
		}
		d.gotStart <- struct{}{}
		if d.dropFirst && connNum == 1 {
			return
		}
		for _, s := range d.sightings {
			if err := ws.WriteJSON(AccessPointFound(s)); err != nil {
				return
			}
		}
	}
}

func (d *fakeDevice) messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.received...)
}

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(10 * time.Millisecond)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://192.168.4.1", "ws://192.168.4.1/api/ws", false},
		{"http://192.168.4.1/", "ws://192.168.4.1/api/ws", false},
		{"https://dmxbox.local:8443", "wss://dmxbox.local:8443/api/ws", false},
		{"192.168.4.1:8080", "ws://192.168.4.1:8080/api/ws", false},
		{"ws://box", "ws://box/api/ws", false},
		{"ftp://box", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebSocketURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WebSocketURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("WebSocketURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantErr   bool
		sighting  bool
		wantSight scan.Sighting
	}{
		{
			name:      "access point found",
			data:      `{"type":"access-point-found","ssid":"Home","mac":"aa:bb:cc:dd:ee:ff","rssi":-55,"authMode":"WPA2_PSK"}`,
			sighting:  true,
			wantSight: scan.Sighting{SSID: "Home", MAC: "aa:bb:cc:dd:ee:ff", RSSI: -55, AuthMode: deviceconfig.AuthModeWPA2PSK},
		},
		{
			name:      "legacy firmware event",
			data:      `{"type":"settings/apFound","ssid":"Cafe","rssi":-40,"bssid":"11:22:33:44:55:66"}`,
			sighting:  true,
			wantSight: scan.Sighting{SSID: "Cafe", MAC: "11:22:33:44:55:66", RSSI: -40},
		},
		{
			name: "control message",
			data: `{"type":"start-scan"}`,
		},
		{
			name:    "missing type",
			data:    `{"ssid":"x"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `hello`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got, ok := msg.Sighting()
			if ok != tt.sighting {
				t.Fatalf("Sighting() ok = %v, want %v", ok, tt.sighting)
			}
			if ok && got != tt.wantSight {
				t.Errorf("Sighting() = %+v, want %+v", got, tt.wantSight)
			}
		})
	}
}

func TestControlMessages(t *testing.T) {
	if !StartScan().IsStartScan() || !(Message{Type: TypeLegacyStartScan}).IsStartScan() {
		t.Error("start-scan not recognised")
	}
	if !StopScan().IsStopScan() || !(Message{Type: TypeLegacyStopScan}).IsStopScan() {
		t.Error("stop-scan not recognised")
	}
}

func TestConnFeedsController(t *testing.T) {
	device := newFakeDevice(t, []scan.Sighting{
		{SSID: "Home", RSSI: -70},
		{SSID: "Home", RSSI: -55},
		{SSID: "Cafe", RSSI: -40},
	})
	server := httptest.NewServer(device)
	defer server.Close()

	conn, err := New(server.URL, WithBackOff(fastBackOff))
	if err != nil {
		t.Fatal(err)
	}
	ctrl := scan.NewController(conn)
	conn.SetHandler(func(window uint64, s scan.Sighting) { ctrl.DeliverGeneration(window, s) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := conn.WaitConnected(waitCtx); err != nil {
		t.Fatal(err)
	}

	obs, err := ctrl.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	if conn.Window() != obs.Generation() {
		t.Errorf("Window() = %d, generation %d", conn.Window(), obs.Generation())
	}

	deadline := time.After(5 * time.Second)
	var ranked []scan.DiscoveredNetwork
	for len(ranked) < 2 || ranked[1].BestRSSI != -55 {
		select {
		case ranked = <-obs.Updates():
		case <-deadline:
			t.Fatalf("timed out, last list %+v", ranked)
		}
	}
	if ranked[0].SSID != "Cafe" || ranked[1].SSID != "Home" {
		t.Errorf("ranked = %+v", ranked)
	}

	if err := obs.Close(); err != nil {
		t.Fatal(err)
	}

	deadline = time.After(5 * time.Second)
	for {
		msgs := device.messages()
		if len(msgs) == 2 {
			if msgs[0] != TypeStartScan || msgs[1] != TypeStopScan {
				t.Errorf("device received %v", msgs)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("device received %v", msgs)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-runErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestConnResendsStartScanAfterReconnect(t *testing.T) {
	device := newFakeDevice(t, []scan.Sighting{{SSID: "Home", RSSI: -50}})
	device.dropFirst = true
	server := httptest.NewServer(device)
	defer server.Close()

	conn, err := New(server.URL, WithBackOff(fastBackOff))
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan scan.Sighting, 4)
	windows := make(chan uint64, 4)
	conn.SetHandler(func(window uint64, s scan.Sighting) {
		windows <- window
		got <- s
	})

	// requested before any connection exists
	if err := conn.StartScan(); err != nil {
		t.Fatalf("StartScan() while offline = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	waitFor(t, device.gotStart)
	waitFor(t, device.gotStart)

	select {
	case s := <-got:
		if s.SSID != "Home" {
			t.Errorf("sighting = %+v", s)
		}
		// the automatic resend keeps the window open
		if w := <-windows; w != 1 {
			t.Errorf("window = %d, want 1", w)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no sighting after reconnect")
	}

	device.mu.Lock()
	conns := device.conns
	device.mu.Unlock()
	if conns < 2 {
		t.Errorf("device saw %d connections", conns)
	}
}

func TestConnClose(t *testing.T) {
	device := newFakeDevice(t, nil)
	server := httptest.NewServer(device)
	defer server.Close()

	conn, err := New(server.URL, WithBackOff(fastBackOff))
	if err != nil {
		t.Fatal(err)
	}
	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.WaitConnected(ctx); err != nil {
		t.Fatal(err)
	}
	if !conn.Connected() {
		t.Error("Connected() = false")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	select {
	case err := <-runErr:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Run() = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after Close")
	}

	if err := conn.StartScan(); !errors.Is(err, ErrClosed) {
		t.Errorf("StartScan() after close = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestConnCloseDuringBackOff(t *testing.T) {
	dialed := make(chan struct{}, 1)
	dialer := &websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			select {
			case dialed <- struct{}{}:
			default:
			}
			return nil, errors.New("connection refused")
		},
	}
	slow := func() backoff.BackOff { return backoff.NewConstantBackOff(time.Hour) }

	conn, err := New("http://192.168.4.1", WithDialer(dialer), WithBackOff(slow))
	if err != nil {
		t.Fatal(err)
	}
	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(context.Background()) }()

	waitFor(t, dialed)
	if err := conn.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	select {
	case err := <-runErr:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Run() = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept waiting out the backoff after Close")
	}
}

func TestRunAfterClose(t *testing.T) {
	conn, err := New("http://127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	_ = conn.Close()
	if err := conn.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Run() after Close = %v, want ErrClosed", err)
	}
}

package livechannel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/scan"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("live channel closed")

// SightingHandler receives every access point sighting in arrival order,
// tagged with the scan window that was open when the frame was read. It
// runs on the read goroutine and must not block.
type SightingHandler func(window uint64, s scan.Sighting)

// Conn is the websocket connection to a dmxbox. It implements scan.Signaler.
//
// The requested scan state survives reconnects: if the link drops while
// scanning, start-scan is sent again as soon as Run has reconnected.
type Conn struct {
	url        string
	id         string
	dialer     *websocket.Dialer
	newBackOff func() backoff.BackOff

	mu        sync.Mutex
	ws        *websocket.Conn
	handler   SightingHandler
	scanning  bool
	window    uint64
	closed    bool
	connected chan struct{}
	cancelRun context.CancelFunc

	writeMu sync.Mutex
}

// Option configures a Conn.
type Option func(*Conn)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Conn) { c.dialer = d }
}

// WithBackOff sets the reconnect policy. A fresh policy is created for
// every outage.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Conn) { c.newBackOff = newBackOff }
}

// WithHandler sets the sighting handler.
func WithHandler(h SightingHandler) Option {
	return func(c *Conn) { c.handler = h }
}

// DefaultBackOff retries forever, starting at half a second and capping at
// thirty.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// WebSocketURL turns a device base URL ("http://192.168.4.1") into the live
// channel URL ("ws://192.168.4.1/api/ws").
func WebSocketURL(base string) (string, error) {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid device URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + Path
	return u.String(), nil
}

// New returns an unconnected Conn for the device at base.
func New(base string, opts ...Option) (*Conn, error) {
	wsURL, err := WebSocketURL(base)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		url:        wsURL,
		id:         uuid.NewString(),
		dialer:     websocket.DefaultDialer,
		newBackOff: DefaultBackOff,
		connected:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL is the websocket URL.
func (c *Conn) URL() string {
	return c.url
}

// SetHandler replaces the sighting handler.
func (c *Conn) SetHandler(h SightingHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Connected reports whether a websocket is currently open.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// WaitConnected blocks until the first connection is up.
func (c *Conn) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	ch := c.connected
	c.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartScan asks the device to stream sightings and opens a new window.
// While disconnected the request is remembered and sent on the next
// connect.
//
// Windows are numbered from one in StartScan order, which matches the
// generations of a scan.Controller that is the only caller.
func (c *Conn) StartScan() error {
	return c.setScanning(true, StartScan())
}

// StopScan asks the device to stop streaming sightings.
func (c *Conn) StopScan() error {
	return c.setScanning(false, StopScan())
}

func (c *Conn) setScanning(on bool, msg Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.scanning = on
	if on {
		c.window++
	}
	ws := c.ws
	c.mu.Unlock()

	if ws == nil {
		logging.Debug("Live channel offline, scan request deferred",
			zap.String("conn", c.id),
			zap.String("type", msg.Type))
		return nil
	}
	return c.write(ws, msg)
}

// Window is the number of the most recent StartScan.
func (c *Conn) Window() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

func (c *Conn) write(ws *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Type, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	logging.LogWebSocketMessage(c.url, "sent", data)
	return nil
}

// Run keeps the connection open until ctx is canceled or Close is called,
// reconnecting with backoff after every failure. Sightings are passed to the
// handler as they arrive.
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.cancelRun = cancel
	c.mu.Unlock()

	for {
		ws, err := c.dial(ctx)
		if err != nil {
			if c.isClosed() {
				return ErrClosed
			}
			return err
		}

		err = c.serve(ctx, ws)
		if c.isClosed() {
			return ErrClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn("Live channel lost, reconnecting",
			zap.String("conn", c.id),
			zap.Error(err))
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	var ws *websocket.Conn
	operation := func() error {
		if c.isClosed() {
			return backoff.Permanent(ErrClosed)
		}
		conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return err
		}
		ws = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logging.Debug("Live channel dial failed",
			zap.String("conn", c.id),
			zap.String("url", c.url),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return ws, nil
}

// serve installs ws as the current connection and reads until it fails.
func (c *Conn) serve(ctx context.Context, ws *websocket.Conn) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return ErrClosed
	}
	c.ws = ws
	resend := c.scanning
	select {
	case <-c.connected:
	default:
		close(c.connected)
	}
	c.mu.Unlock()

	logging.LogConnection(c.url, "live channel connected")

	defer func() {
		c.mu.Lock()
		if c.ws == ws {
			c.ws = nil
		}
		c.mu.Unlock()
		ws.Close()
		logging.LogConnection(c.url, "live channel disconnected")
	}()

	// the device forgets the scan flag with the old socket
	if resend {
		if err := c.write(ws, StartScan()); err != nil {
			return err
		}
	}

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go c.pingLoop(ctx, ws, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		logging.LogWebSocketMessage(c.url, "received", data)
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	c.mu.Lock()
	window := c.window
	c.mu.Unlock()

	msg, err := DecodeMessage(data)
	if err != nil {
		logging.Debug("Ignoring live message", zap.String("conn", c.id), zap.Error(err))
		return
	}
	sighting, ok := msg.Sighting()
	if !ok {
		logging.Debug("Ignoring live message type", zap.String("type", msg.Type))
		return
	}

	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(window, sighting)
	}
}

func (c *Conn) pingLoop(ctx context.Context, ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			// unblock ReadMessage
			ws.Close()
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close shuts the connection and stops Run.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	cancel := c.cancelRun
	c.mu.Unlock()

	// wakes a dial sleeping in its backoff wait
	if cancel != nil {
		cancel()
	}
	if ws == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return ws.Close()
}

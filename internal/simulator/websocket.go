package simulator

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/livechannel"
	"github.com/muurk/dmxbox/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the device accepts any origin
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSession is one live channel client. Like the firmware, the scan flag is
// per connection: only clients that sent start-scan receive sightings.
type wsSession struct {
	id     string
	remote string
	conn   *websocket.Conn
	server *Server

	writeMu sync.Mutex

	mu       sync.Mutex
	scanning bool
	wake     chan struct{}
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sess := &wsSession{
		id:     uuid.NewString(),
		remote: r.RemoteAddr,
		conn:   conn,
		server: s,
		wake:   make(chan struct{}, 1),
	}
	s.track(sess)
	defer s.untrack(sess)

	logging.LogConnection(sess.remote, "websocket_connected")
	defer logging.LogConnection(sess.remote, "websocket_closed")

	done := make(chan struct{})
	defer close(done)
	go sess.scanLoop(done)

	sess.readLoop()
}

func (sess *wsSession) readLoop() {
	defer sess.conn.Close()
	sess.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		logging.LogWebSocketMessage(sess.remote, "received", data)

		msg, err := livechannel.DecodeMessage(data)
		if err != nil {
			logging.Debug("Ignoring frame", zap.String("session", sess.id), zap.Error(err))
			continue
		}
		switch {
		case msg.IsStartScan():
			sess.setScanning(true)
		case msg.IsStopScan():
			sess.setScanning(false)
		default:
			logging.Warn("Unknown message type",
				zap.String("session", sess.id),
				zap.String("type", msg.Type))
		}
	}
}

func (sess *wsSession) setScanning(on bool) {
	sess.mu.Lock()
	sess.scanning = on
	sess.mu.Unlock()
	logging.Info("Scan flag changed", zap.String("session", sess.id), zap.Bool("scanning", on))
	if on {
		select {
		case sess.wake <- struct{}{}:
		default:
		}
	}
}

func (sess *wsSession) isScanning() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.scanning
}

// scanLoop runs a scan round whenever start-scan arrives and then every
// ScanInterval while the flag stays set.
func (sess *wsSession) scanLoop(done <-chan struct{}) {
	interval := sess.server.config.ScanInterval
	for {
		select {
		case <-done:
			return
		case <-sess.wake:
		}

		for sess.isScanning() {
			if err := sess.sendRound(); err != nil {
				return
			}
			select {
			case <-done:
				return
			case <-sess.wake:
			case <-time.After(interval):
			}
		}
	}
}

// sendRound writes one record per network. The flag is checked before every
// record so stop-scan takes effect mid round.
func (sess *wsSession) sendRound() error {
	for _, n := range sess.server.device.Networks() {
		if !sess.isScanning() {
			return nil
		}
		if err := sess.send(livechannel.AccessPointFound(n)); err != nil {
			return err
		}
	}
	return nil
}

func (sess *wsSession) send(msg livechannel.Message) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteJSON(msg); err != nil {
		logging.Debug("Write failed", zap.String("session", sess.id), zap.Error(err))
		return err
	}
	return nil
}

func (sess *wsSession) close() {
	sess.writeMu.Lock()
	_ = sess.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(writeWait))
	sess.writeMu.Unlock()
	_ = sess.conn.Close()
}

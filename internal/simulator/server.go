package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/discovery"
	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/version"
)

// DefaultScanInterval is how often a scanning client gets a fresh round.
const DefaultScanInterval = 3 * time.Second

// Config holds the simulator configuration
type Config struct {
	Host         string
	Port         int
	LogLevel     string
	FixturePath  string        // YAML fixture (empty = factory defaults)
	ScanInterval time.Duration // delay between scan rounds
	Advertise    bool          // announce the simulator over mDNS
}

// Server is a simulated dmxbox: the config endpoint plus the live channel.
type Server struct {
	config     *Config
	device     *Device
	httpServer *http.Server
	listener   net.Listener
	mdns       *zeroconf.Server

	mu       sync.Mutex
	sessions map[string]*wsSession
}

// New creates a Server. It does not start listening.
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	fixture := DefaultFixture()
	if config.FixturePath != "" {
		var err error
		fixture, err = LoadFixture(config.FixturePath)
		if err != nil {
			return nil, err
		}
		logging.Info("Loaded fixture", zap.String("path", config.FixturePath))
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultScanInterval
	}

	return NewWithDevice(config, NewDevice(fixture)), nil
}

// NewWithDevice creates a Server around an existing device. Logging is left
// as configured by the caller.
func NewWithDevice(config *Config, device *Device) *Server {
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultScanInterval
	}
	s := &Server{
		config:   config,
		device:   device,
		sessions: make(map[string]*wsSession),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Device returns the simulated device state.
func (s *Server) Device() *Device {
	return s.device
}

// Start listens and serves until SIGINT/SIGTERM or a serve error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logging.Info("Starting dmxbox simulator",
		zap.String("addr", listener.Addr().String()),
		zap.String("hostname", s.device.Config().HostName),
		zap.Duration("scan_interval", s.config.ScanInterval),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping simulator...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Serve accepts connections on listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	if s.config.Advertise {
		if err := s.advertise(listener.Addr()); err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	err := s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) advertise(addr net.Addr) error {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("cannot advertise %s", addr)
	}
	txt := []string{
		"path=" + deviceconfig.ConfigPath,
		"version=" + version.Version,
	}
	server, err := zeroconf.Register(s.device.Config().HostName, discovery.ServiceType, discovery.ServiceDomain, tcp.Port, txt, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.mdns = server
	s.mu.Unlock()
	logging.Info("Advertising over mDNS",
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcp.Port))
	return nil
}

// Addr is the listening address once serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) track(sess *wsSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) untrack(sess *wsSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
}

// GetActiveConnections returns the number of open live channel sessions.
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops the HTTP server and closes every live channel session.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulator...")

	s.mu.Lock()
	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	sessions := make([]*wsSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	// hijacked connections are not closed by http.Server.Shutdown
	for _, sess := range sessions {
		logging.Info("Closing live channel", zap.String("remote_addr", sess.remote))
		sess.close()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	logging.Sync()
	return err
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/wifiform"
)

var (
	// ErrSubmitInProgress is returned when Submit is called before the
	// previous Submit has finished.
	ErrSubmitInProgress = errors.New("submission in progress")
	// ErrNotReady is returned by Submit before a successful Load.
	ErrNotReady = errors.New("configuration not loaded")
)

// ConfigEndpoint fetches and stores the device configuration.
// *deviceconfig.Client implements it.
type ConfigEndpoint interface {
	GetConfiguration(ctx context.Context) (*deviceconfig.WireConfig, error)
	PutConfiguration(ctx context.Context, cfg *deviceconfig.WireConfig) error
}

// State of a Session.
type State int

const (
	// Loading until the configuration has been fetched.
	Loading State = iota
	// Ready once the configuration is available as form fields.
	Ready
	// Failed when the last load failed; Err holds the cause.
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session walks one device configuration through load, edit, validate and
// submit.
type Session struct {
	endpoint ConfigEndpoint
	mapper   wifiform.Mapper
	id       string

	mu         sync.Mutex
	state      State
	fields     wifiform.FormFields
	err        error
	loadSeq    uint64
	submitting bool
}

// Option configures a Session.
type Option func(*Session)

// WithMapper overrides wifiform.DefaultMapper.
func WithMapper(m wifiform.Mapper) Option {
	return func(s *Session) { s.mapper = m }
}

// New returns a session in the Loading state.
func New(endpoint ConfigEndpoint, opts ...Option) *Session {
	s := &Session{
		endpoint: endpoint,
		mapper:   wifiform.DefaultMapper,
		id:       uuid.NewString(),
		state:    Loading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fields returns the loaded form fields; the boolean is false unless Ready.
func (s *Session) Fields() (wifiform.FormFields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields, s.state == Ready
}

// Err returns the transport error of a failed load.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Load fetches the configuration. The session is Loading until the fetch
// completes and then either Ready or Failed; there is no partial state. If
// Load is called again before an earlier call returns, only the latest
// result is kept.
func (s *Session) Load(ctx context.Context) (wifiform.FormFields, error) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	logging.Debug("Loading configuration", zap.String("session", s.id))
	wire, err := s.endpoint.GetConfiguration(ctx)

	var fields wifiform.FormFields
	if err == nil {
		fields = s.mapper.ToFields(*wire)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		return fields, err
	}
	if err != nil {
		s.state = Failed
		s.err = err
		logging.Warn("Configuration load failed",
			zap.String("session", s.id),
			zap.Error(err))
		return wifiform.FormFields{}, err
	}
	s.state = Ready
	s.fields = fields
	logging.Debug("Configuration loaded",
		zap.String("session", s.id),
		zap.String("hostname", fields.HostName))
	return fields, nil
}

// Submit validates fields and, if they pass, stores them on the device with
// a single PUT.
//
// Invalid fields come back as FieldErrors with a nil error and nothing is
// sent. A transport failure is returned as the error and the session keeps
// its previous fields. Concurrent calls get ErrSubmitInProgress.
func (s *Session) Submit(ctx context.Context, fields wifiform.FormFields) (wifiform.FieldErrors, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if s.state != Ready {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if errs := wifiform.Validate(fields); !errs.Valid() {
		logging.Debug("Submission rejected by validation",
			zap.String("session", s.id),
			zap.Strings("fields", errs.Paths()))
		return errs, nil
	}

	wire := s.mapper.ToWire(fields)
	if err := s.endpoint.PutConfiguration(ctx, &wire); err != nil {
		logging.Warn("Configuration submit failed",
			zap.String("session", s.id),
			zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.fields = s.mapper.ToFields(wire)
	s.mu.Unlock()

	logging.Info("Configuration stored",
		zap.String("session", s.id),
		zap.String("hostname", wire.HostName))
	return nil, nil
}

// Submitting reports whether a Submit is in flight.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

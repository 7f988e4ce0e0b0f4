package scan

import (
	"errors"
	"fmt"
	"sync"

	"github.com/muurk/dmxbox/internal/logging"
)

var (
	// ErrObserverClosed is returned by Observer methods after Close.
	ErrObserverClosed = errors.New("scan observer closed")
	// ErrNotActive is returned by Deactivate without a matching Activate.
	ErrNotActive = errors.New("scan controller not active")
)

// Signaler sends scan control messages to the device. Calls are made with
// the controller lock held, so implementations must not call back into the
// Controller.
type Signaler interface {
	StartScan() error
	StopScan() error
}

// Phase is the controller state.
type Phase int

const (
	Idle Phase = iota
	Scanning
)

func (p Phase) String() string {
	if p == Scanning {
		return "scanning"
	}
	return "idle"
}

// Controller shares one device scan between any number of observers. The
// device is told to start when the first observer arrives and to stop when
// the last one leaves. Every start opens a new window with an empty
// Aggregator.
type Controller struct {
	signaler Signaler

	mu         sync.Mutex
	active     int
	generation uint64
	agg        *Aggregator
	observers  map[*Observer]struct{}
}

// NewController returns an idle controller.
func NewController(signaler Signaler) *Controller {
	return &Controller{
		signaler:  signaler,
		observers: make(map[*Observer]struct{}),
	}
}

// Activate registers interest in scan results and returns the current
// window generation. Only the transition from zero to one sends start-scan.
// If sending fails the controller still counts the activation; the caller
// should Deactivate.
func (c *Controller) Activate() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked()
}

func (c *Controller) activateLocked() (uint64, error) {
	c.active++
	if c.active > 1 {
		return c.generation, nil
	}

	c.generation++
	c.agg = NewAggregator(c.generation)
	logging.LogScanTransition(Idle.String(), Scanning.String(), c.active, c.generation)

	if err := c.signaler.StartScan(); err != nil {
		return c.generation, fmt.Errorf("start scan: %w", err)
	}
	return c.generation, nil
}

// Deactivate drops one activation. Only the transition from one to zero
// sends stop-scan; from then on sightings are dropped until the next
// Activate.
func (c *Controller) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deactivateLocked()
}

func (c *Controller) deactivateLocked() error {
	if c.active == 0 {
		return ErrNotActive
	}
	c.active--
	if c.active > 0 {
		return nil
	}

	c.agg = nil
	logging.LogScanTransition(Scanning.String(), Idle.String(), 0, c.generation)

	if err := c.signaler.StopScan(); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	return nil
}

// Phase returns Idle or Scanning.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active > 0 {
		return Scanning
	}
	return Idle
}

// Active is the number of outstanding activations.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Generation is the number of the current or most recent window.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Deliver folds s into the current window. It returns false when the
// controller is idle and the sighting was dropped.
func (c *Controller) Deliver(s Sighting) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agg == nil {
		return false
	}
	return c.foldLocked(s)
}

// DeliverGeneration folds s only if generation is still the open window.
// Readers that tag each sighting with the window open when it was read,
// as livechannel.Conn does, use this to discard sightings that were read
// before a restart and handed over after it.
func (c *Controller) DeliverGeneration(generation uint64, s Sighting) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agg == nil || c.agg.Generation() != generation {
		return false
	}
	return c.foldLocked(s)
}

func (c *Controller) foldLocked(s Sighting) bool {
	if !c.agg.Add(s) {
		return true
	}
	ranked := c.agg.Ranked()
	for o := range c.observers {
		o.publish(ranked)
	}
	return true
}

// Networks returns the ranked list of the open window, or nil when idle.
func (c *Controller) Networks() []DiscoveredNetwork {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agg == nil {
		return nil
	}
	return c.agg.Ranked()
}

// Subscribe activates the controller and returns an Observer that receives
// the ranked list whenever it changes. Close the observer to deactivate.
func (c *Controller) Subscribe() (*Observer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	generation, err := c.activateLocked()
	o := &Observer{
		controller: c,
		generation: generation,
		updates:    make(chan []DiscoveredNetwork, 1),
	}
	c.observers[o] = struct{}{}
	if c.agg != nil && c.agg.Len() > 0 {
		o.publish(c.agg.Ranked())
	}
	return o, err
}

func (c *Controller) unsubscribe(o *Observer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.observers, o)
	close(o.updates)
	return c.deactivateLocked()
}

// Observer is one subscriber to scan results.
type Observer struct {
	controller *Controller
	generation uint64
	updates    chan []DiscoveredNetwork

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Updates delivers the latest ranked list. Slow readers only see the most
// recent list. The channel is closed by Close.
func (o *Observer) Updates() <-chan []DiscoveredNetwork {
	return o.updates
}

// Generation is the scan window the observer joined.
func (o *Observer) Generation() uint64 {
	return o.generation
}

// Networks returns the current ranked list.
func (o *Observer) Networks() ([]DiscoveredNetwork, error) {
	o.controller.mu.Lock()
	closed := o.closed
	o.controller.mu.Unlock()
	if closed {
		return nil, ErrObserverClosed
	}
	return o.controller.Networks(), nil
}

// Close deactivates the observer. Calling it again is a no-op.
func (o *Observer) Close() error {
	o.closeOnce.Do(func() {
		o.controller.mu.Lock()
		o.closed = true
		o.controller.mu.Unlock()
		o.closeErr = o.controller.unsubscribe(o)
	})
	return o.closeErr
}

// publish replaces any unread list with ranked. Called with the controller
// lock held, so there is a single sender.
func (o *Observer) publish(ranked []DiscoveredNetwork) {
	select {
	case o.updates <- ranked:
		return
	default:
	}
	select {
	case <-o.updates:
	default:
	}
	select {
	case o.updates <- ranked:
	default:
	}
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/siiimooon/go-hrm/pkg/heartrate"
)

// Controller errors.
var (
	ErrSensorNotFound  = errors.New("heart rate sensor not found")
	ErrSubscribeFailed = errors.New("failed at subscribing to heart rate notifications")
	ErrAlreadyRunning  = errors.New("controller already running")
)

// DefaultQueueSize is the number of raw notifications buffered between the
// gateway and the decoder.
const DefaultQueueSize = 16

// Option configures a Controller.
type Option func(*Controller)

// WithReconnectDelay sets the fixed wait between connection attempts.
func WithReconnectDelay(delay time.Duration) Option {
	return func(c *Controller) {
		c.backoff = NewBackoff(delay)
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithLogger sets the logger used for lifecycle and decode diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.log = logger
		}
	}
}

// OnReading registers the consumer of decoded readings.
func OnReading(fn func(heartrate.Reading)) Option {
	return func(c *Controller) {
		c.onReading = fn
	}
}

// OnStatusChange registers an observer of state transitions.
func OnStatusChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onStatusChange = fn
	}
}

// OnConnectFailed registers an observer of failed connection attempts.
func OnConnectFailed(fn func(error)) Option {
	return func(c *Controller) {
		c.onConnectFailed = fn
	}
}

// OnDecodeError registers a diagnostics sink for payloads that could not be
// decoded. Empty payloads are not reported.
func OnDecodeError(fn func(error)) Option {
	return func(c *Controller) {
		c.onDecodeError = fn
	}
}

// Stats holds controller counters.
type Stats struct {
	ConnectAttempts    uint64
	ConnectFailures    uint64
	Readings           uint64
	DecodeErrors       uint64
	EmptyNotifications uint64
	Disconnects        uint64
}

// Controller keeps one heart rate subscription alive and delivers decoded
// readings to its consumer.
type Controller struct {
	gateway   Gateway
	backoff   *Backoff
	queueSize int
	log       logrus.FieldLogger

	onReading       func(heartrate.Reading)
	onStatusChange  func(State)
	onConnectFailed func(error)
	onDecodeError   func(error)

	mu      sync.RWMutex
	state   State
	running bool
	stats   Stats

	disconnectCh chan struct{}
}

// New creates a Controller on top of the given gateway.
func New(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:      gateway,
		backoff:      NewBackoff(DefaultReconnectDelay),
		queueSize:    DefaultQueueSize,
		log:          discardLogger(),
		state:        StateDisconnected,
		disconnectCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stats returns a snapshot of the controller counters.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Disconnect drops the current connection. The controller reconnects
// afterwards. It has no effect unless the controller is connected.
func (c *Controller) Disconnect() {
	if c.State() != StateConnected {
		return
	}
	select {
	case c.disconnectCh <- struct{}{}:
	default:
		// Already pending
	}
}

// Run connects to a sensor and keeps the subscription alive until ctx is
// done. Connection and decode failures never end the run. It returns nil
// when ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		c.setState(StateConnecting)

		handle, ep, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateDisconnected)
				return suppressCancellationError(ctx.Err())
			}

			delay := c.backoff.Next()
			c.log.WithError(err).WithFields(logrus.Fields{
				"attempt": c.backoff.Attempts(),
				"retry":   delay,
			}).Warn("connecting failed")
			if c.onConnectFailed != nil {
				c.onConnectFailed(err)
			}

			if !wait(ctx, delay) {
				c.setState(StateDisconnected)
				return suppressCancellationError(ctx.Err())
			}
			continue
		}

		c.backoff.Reset()
		started := time.Now()
		c.serve(ctx, handle, ep)

		if ctx.Err() != nil {
			return suppressCancellationError(ctx.Err())
		}

		// A sensor that connects and drops right away must not be
		// reconnected in a tight loop.
		if lasted, delay := time.Since(started), c.backoff.Delay(); lasted < delay {
			c.log.WithFields(logrus.Fields{
				"lasted": lasted,
				"retry":  delay,
			}).Info("connection was short, waiting before reconnecting")
			if !wait(ctx, delay) {
				return suppressCancellationError(ctx.Err())
			}
		}
	}
}

// connect acquires a sensor and subscribes to it. The handle is released
// again if the subscription fails.
func (c *Controller) connect(ctx context.Context) (Handle, *episode, error) {
	c.count(func(s *Stats) { s.ConnectAttempts++ })

	handle, err := c.gateway.FindSensor(ctx)
	if err == nil && handle == nil {
		err = ErrSensorNotFound
	}
	if err != nil {
		c.count(func(s *Stats) { s.ConnectFailures++ })
		if !errors.Is(err, ErrSensorNotFound) {
			err = fmt.Errorf("%w: %w", ErrSensorNotFound, err)
		}
		return nil, nil, err
	}

	ep := newEpisode(c.queueSize)
	if err := c.gateway.Subscribe(handle, ep.enqueue); err != nil {
		c.count(func(s *Stats) { s.ConnectFailures++ })
		ep.close()
		c.release(handle)
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, handle.Name(), err)
	}

	return handle, ep, nil
}

// serve processes notifications of one connected episode until the link is
// lost, a disconnect is requested or ctx is done. The handle is released
// before it returns.
func (c *Controller) serve(ctx context.Context, handle Handle, ep *episode) {
	log := c.log.WithField("sensor", handle.Name())

	// Drop disconnect requests aimed at a previous episode.
	select {
	case <-c.disconnectCh:
	default:
	}

	c.setState(StateConnected)
	log.Info("connected")

	reason := ""
loop:
	for {
		select {
		case <-ctx.Done():
			reason = "shutdown"
			break loop
		case <-handle.Lost():
			reason = "link lost"
			break loop
		case <-c.disconnectCh:
			reason = "disconnect requested"
			break loop
		case buf := <-ep.queue:
			c.handleNotification(log, buf)
		}
	}

	if ctx.Err() == nil {
		// Deliver what arrived before the episode ended.
		for drained := false; !drained; {
			select {
			case buf := <-ep.queue:
				c.handleNotification(log, buf)
			default:
				drained = true
			}
		}
	}

	ep.close()
	c.release(handle)
	c.count(func(s *Stats) { s.Disconnects++ })
	log.WithField("reason", reason).Info("disconnected")
	c.setState(StateDisconnected)
}

func (c *Controller) handleNotification(log logrus.FieldLogger, buf []byte) {
	reading, err := heartrate.Decode(buf)
	switch {
	case errors.Is(err, heartrate.ErrEmpty):
		c.count(func(s *Stats) { s.EmptyNotifications++ })
	case err != nil:
		c.count(func(s *Stats) { s.DecodeErrors++ })
		log.WithError(err).WithField("payload", fmt.Sprintf("% x", buf)).Debug("dropping measurement")
		if c.onDecodeError != nil {
			c.onDecodeError(err)
		}
	default:
		c.count(func(s *Stats) { s.Readings++ })
		if c.onReading != nil {
			c.onReading(reading)
		}
	}
}

func (c *Controller) release(handle Handle) {
	if err := c.gateway.Release(handle); err != nil {
		c.log.WithError(err).WithField("sensor", handle.Name()).Warn("failed at releasing sensor")
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	old := c.state
	c.state = state
	c.mu.Unlock()

	if old == state {
		return
	}
	c.log.WithFields(logrus.Fields{"from": old, "to": state}).Debug("state change")
	if c.onStatusChange != nil {
		c.onStatusChange(state)
	}
}

func (c *Controller) count(update func(*Stats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

// episode is the notification queue of one connected period.
type episode struct {
	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newEpisode(size int) *episode {
	return &episode{
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
}

// enqueue is handed to the gateway as the notification callback. The
// gateway may reuse buf, so it is copied.
func (e *episode) enqueue(buf []byte) {
	data := make([]byte, len(buf))
	copy(data, buf)

	select {
	case e.queue <- data:
	case <-e.done:
	}
}

func (e *episode) close() {
	e.closeOnce.Do(func() { close(e.done) })
}

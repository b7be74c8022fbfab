package fade

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/alarmify/internal/logger"
)

// Controller runs at most one session at a time against one actuator.
type Controller struct {
	// volume is the actuator the ramps drive.
	volume VolumeSetter
	// interval is the time between two steps.
	interval time.Duration
	// newTicker creates the step ticker.
	newTicker TickerFactory

	mu      sync.Mutex
	current *Session
	running sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithStepInterval overrides DefaultStepInterval.
func WithStepInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithTickerFactory replaces the time.Ticker based factory.
func WithTickerFactory(factory TickerFactory) Option {
	return func(c *Controller) {
		if factory != nil {
			c.newTicker = factory
		}
	}
}

// NewController creates a controller for the given actuator.
func NewController(volume VolumeSetter, opts ...Option) *Controller {
	c := &Controller{
		volume:    volume,
		interval:  DefaultStepInterval,
		newTicker: NewTicker,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start stops any running ramp and starts a new one toward target.
// The ramp outlives ctx cancellation; only Stop or completion end it.
func (c *Controller) Start(ctx context.Context, target int, duration time.Duration) *Session {
	ctx = logger.WithName(context.WithoutCancel(ctx), "fade")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	session := NewSession(c.volume, target, duration, c.interval)
	if err := session.Begin(ctx); err != nil {
		logger.WarnKV(ctx, "Failed to silence device before fade-in", "error", err)
	}

	logger.InfoKV(ctx, "Fade-in started",
		"target", session.Target(),
		"steps", session.TotalSteps(),
		"interval", c.interval)

	c.current = session
	ticker := c.newTicker(c.interval)

	c.running.Add(1)

	go func() {
		defer c.running.Done()
		defer ticker.Stop()

		run(ctx, session, ticker)
	}()

	return session
}

// Stop ends the running ramp, if any, and waits for its worker to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
}

// Active reports whether a ramp is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current != nil && c.current.Active()
}

// Current returns the most recent session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *Controller) stopLocked() {
	if c.current == nil {
		return
	}

	if c.current.Active() {
		logger.Info(context.Background(), "Stopping previous fade-in")
	}

	c.current.Stop()
	c.running.Wait()
}

func run(ctx context.Context, session *Session, ticker Ticker) {
	for {
		select {
		case <-session.Done():
			return
		case <-ticker.C():
			finished, err := session.Advance(ctx)
			if err != nil {
				logger.WarnKV(ctx, "Fade-in step failed", "step", session.Step(), "error", err)
			}

			if finished {
				logger.InfoKV(ctx, "Fade-in completed", "volume", session.Current())

				return
			}
		}
	}
}

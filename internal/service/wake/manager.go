package wake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/alarmify/internal/actuator"
	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/notify"
	"github.com/oshokin/alarmify/internal/service/common"
	"github.com/oshokin/alarmify/internal/service/fade"
)

// ErrJoinTimeout is returned by Shutdown when workers did not exit in time.
var ErrJoinTimeout = errors.New("wake manager workers did not stop within the join timeout")

// Fader restarts the fade-in ramp after a playback restart.
type Fader interface {
	// Start replaces any running ramp with a new one toward target.
	Start(ctx context.Context, target int, duration time.Duration) *fade.Session
}

// Manager owns the pre-wake timers and the monitored alarm sessions.
type Manager struct {
	// actuator is the shared playback service.
	actuator actuator.PlaybackActuator
	// notifier receives the fallback event.
	notifier notify.Notifier
	// fader is optional; without it retries play at the target volume.
	fader Fader
	// cfg holds the timing configuration.
	cfg config.Wake
	// now returns the wall clock.
	now func() time.Time

	mu       sync.Mutex
	closed   bool
	timers   map[string]*wakeTimer
	sessions map[string]*session
	nextGen  uint64

	// loopCancel stops the monitor loop; nil when the loop is not running.
	loopCancel context.CancelFunc
	// loopDone is closed when the monitor loop exits.
	loopDone chan struct{}
	// workers counts timer callbacks and immediate wakes in flight.
	workers sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithFader restarts fade-in ramps on retries.
func WithFader(f Fader) Option {
	return func(m *Manager) {
		m.fader = f
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager. Zero values in cfg take the config defaults.
func NewManager(a actuator.PlaybackActuator, n notify.Notifier, cfg config.Wake, opts ...Option) *Manager {
	m := &Manager{
		actuator: a,
		notifier: n,
		cfg:      withDefaults(cfg),
		now:      time.Now,
		timers:   make(map[string]*wakeTimer),
		sessions: make(map[string]*session),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func withDefaults(cfg config.Wake) config.Wake {
	if cfg.PreWake <= 0 {
		cfg.PreWake = config.DefaultPreWake
	}

	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = config.DefaultHealthCheckInterval
	}

	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = config.DefaultMaxRetryAttempts
	}

	if cfg.MonitoringWindow <= 0 {
		cfg.MonitoringWindow = config.DefaultMonitoringWindow
	}

	if cfg.RetryPause <= 0 {
		cfg.RetryPause = config.DefaultRetryPause
	}

	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = config.DefaultWakeJoin
	}

	return cfg
}

// Shutdown cancels every pre-wake timer, stops the monitor loop and clears all
// sessions. It is safe to call with no work and more than once; a slow worker
// is logged and reported as ErrJoinTimeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	ctx = logger.WithName(ctx, "wake")

	m.mu.Lock()
	m.closed = true

	for id, t := range m.timers {
		t.timer.Stop()
		delete(m.timers, id)
	}

	clear(m.sessions)

	loopDone := m.loopDone
	if m.loopCancel != nil {
		m.loopCancel()
		m.loopCancel = nil
	}
	m.mu.Unlock()

	finished := make(chan struct{})

	go func() {
		if loopDone != nil {
			<-loopDone
		}

		m.workers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info(ctx, "Wake manager stopped")

		return nil
	case <-time.After(m.cfg.JoinTimeout):
		logger.WarnKV(ctx, "Wake manager workers did not stop in time", "join_timeout", m.cfg.JoinTimeout)

		return ErrJoinTimeout
	}
}

// wakeNow runs one best-effort device wake and logs the outcome.
func (m *Manager) wakeNow(ctx context.Context, reason string) actuator.WakeResult {
	res := actuator.WakeDevice(ctx, m.actuator)

	switch res.Outcome {
	case actuator.WakeActivated:
		logger.InfoKV(ctx, "Device woken", "reason", reason, "device", res.Device.Name)
	case actuator.WakeAlreadyActive:
		logger.DebugKV(ctx, "Device already active", "reason", reason, "device", res.Device.Name)
	case actuator.WakeNoDevices:
		logger.WarnKV(ctx, "No device to wake", "reason", reason)
	case actuator.WakeFailed:
		logger.WarnKV(ctx, "Device wake failed", "reason", reason, "error", res.Err)
	}

	return res
}

// spawnLocked runs fn as a tracked worker. The caller holds the lock.
func (m *Manager) spawnLocked(ctx context.Context, name string, fn func()) {
	m.workers.Add(1)

	go func() {
		defer m.workers.Done()
		defer common.Recover(ctx, name)

		fn()
	}()
}

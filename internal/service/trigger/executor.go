package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/alarmify/internal/actuator"
	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/notify"
	"github.com/oshokin/alarmify/internal/service/fade"
)

const (
	// DefaultAttempts is the number of playback attempts per firing.
	DefaultAttempts = 3
	// DefaultBaseDelay is the backoff after the first failed attempt; it doubles afterwards.
	DefaultBaseDelay = 2 * time.Second
)

// Fader ramps the volume after playback starts.
type Fader interface {
	// Start replaces any running ramp with a new one toward target.
	Start(ctx context.Context, target int, duration time.Duration) *fade.Session
	// Stop ends the running ramp.
	Stop()
}

// Monitor supervises an alarm after it started playing.
type Monitor interface {
	// StartMonitoring opens a health-monitoring session for the alarm.
	StartMonitoring(ctx context.Context, alarmID string, snap alarm.Snapshot)
}

// Status is the outcome class of a firing.
type Status int

// Firing outcomes.
const (
	// StatusSkipped means the weekday gate rejected the firing.
	StatusSkipped Status = iota
	// StatusPlayed means playback started.
	StatusPlayed
	// StatusFailed means every attempt failed and the user was notified.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusPlayed:
		return "played"
	default:
		return "failed"
	}
}

// Result reports what a firing did.
type Result struct {
	// Status is the outcome class.
	Status Status
	// Attempts is the number of playback attempts made.
	Attempts int
	// Wake is the outcome of the best-effort device wake.
	Wake actuator.WakeOutcome
	// Cause classifies the last playback error of a failed firing.
	Cause actuator.Cause
	// Err is the last playback error of a failed firing.
	Err error
}

// Executor runs the firing pipeline against one shared actuator.
type Executor struct {
	// actuator is the playback service.
	actuator actuator.PlaybackActuator
	// notifier receives the success or failure event.
	notifier notify.Notifier
	// fader runs fade-in ramps; nil disables fade-in.
	fader Fader
	// monitor receives successful firings; nil disables monitoring.
	monitor Monitor

	// attempts bounds the playback attempts.
	attempts int
	// baseDelay is the first backoff delay.
	baseDelay time.Duration
	// fadeSupported is the fade-in capability flag resolved at startup.
	fadeSupported bool
	// now returns the local wall clock used by the weekday gate.
	now func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithFader enables fade-in through f.
func WithFader(f Fader) Option {
	return func(e *Executor) {
		e.fader = f
	}
}

// WithMonitor hands successful firings to m.
func WithMonitor(m Monitor) Option {
	return func(e *Executor) {
		e.monitor = m
	}
}

// WithAttempts overrides DefaultAttempts.
func WithAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithBaseDelay overrides DefaultBaseDelay.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// WithFadeSupport sets the fade-in capability flag. Without support, alarms
// with fade-in play at their target volume.
func WithFadeSupport(supported bool) Option {
	return func(e *Executor) {
		e.fadeSupported = supported
	}
}

// WithClock replaces time.Now for the weekday gate.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExecutor creates an executor.
func NewExecutor(a actuator.PlaybackActuator, n notify.Notifier, opts ...Option) *Executor {
	e := &Executor{
		actuator:      a,
		notifier:      n,
		attempts:      DefaultAttempts,
		baseDelay:     DefaultBaseDelay,
		fadeSupported: true,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// FadeSupported reports the fade-in capability flag.
func (e *Executor) FadeSupported() bool {
	return e.fadeSupported && e.fader != nil
}

// Fire runs a recurring alarm. The weekday gate uses the local wall clock at
// fire time, so a clock or timezone change between scheduling and firing can
// skip a day.
func (e *Executor) Fire(ctx context.Context, def alarm.Definition) Result {
	ctx = logger.WithKV(logger.WithName(ctx, "trigger"), "alarm_id", def.ID)

	today := e.now().Weekday()
	if !def.Weekdays.Contains(today) {
		logger.InfoKV(ctx, "Alarm is not active today, skipping",
			"today", today.String(),
			"weekdays", def.Weekdays.String())

		return Result{Status: StatusSkipped}
	}

	return e.play(ctx, def.ID, def.Snapshot())
}

// Play runs the playback path without the weekday gate; snoozes use it.
// monitorID names the health-monitoring session opened on success.
func (e *Executor) Play(ctx context.Context, monitorID string, snap alarm.Snapshot) Result {
	ctx = logger.WithKV(logger.WithName(ctx, "trigger"), "alarm_id", monitorID)

	return e.play(ctx, monitorID, snap)
}

func (e *Executor) play(ctx context.Context, monitorID string, snap alarm.Snapshot) Result {
	result := Result{Wake: e.wake(ctx)}

	fading := snap.FadeIn.Enabled && e.FadeSupported()

	startVolume := snap.Volume
	if fading {
		startVolume = 0
	}

	var lastErr error

	for attempt := 1; attempt <= e.attempts; attempt++ {
		if attempt > 1 {
			backoff := e.baseDelay << (attempt - 2) //nolint:gosec // Attempts are small and positive.

			select {
			case <-ctx.Done():
				lastErr = fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(backoff):
			}

			if ctx.Err() != nil {
				break
			}
		}

		result.Attempts = attempt

		if err := e.actuator.SetVolume(ctx, startVolume); err != nil {
			logger.WarnKV(ctx, "Failed to set volume, continuing with playback",
				"attempt", attempt,
				"volume", startVolume,
				"error", err)
		}

		err := e.actuator.StartPlayback(ctx, snap.Content.Ref)
		if err == nil {
			e.succeed(ctx, monitorID, snap, fading, attempt)

			result.Status = StatusPlayed

			return result
		}

		lastErr = err
		cause := actuator.Classify(err)

		logger.WarnKV(ctx, "Playback attempt failed",
			"attempt", attempt,
			"max_attempts", e.attempts,
			"cause", cause.String(),
			"error", err)

		if cause.Category() == actuator.Permanent {
			break
		}

		if cause == actuator.CauseNoActiveDevice && attempt < e.attempts {
			e.wake(ctx)
		}
	}

	result.Status = StatusFailed
	result.Err = lastErr
	result.Cause = actuator.Classify(lastErr)

	title, message := result.Cause.Describe(snap.Content.Label())

	logger.ErrorKV(ctx, "Alarm failed after retries",
		"attempts", result.Attempts,
		"cause", result.Cause.String(),
		"error", lastErr)

	if err := e.notifier.Failure(ctx, title, message); err != nil {
		logger.WarnKV(ctx, "Failed to deliver failure notification", "error", err)
	}

	return result
}

func (e *Executor) succeed(ctx context.Context, monitorID string, snap alarm.Snapshot, fading bool, attempt int) {
	if fading {
		e.fader.Start(ctx, snap.Volume, snap.FadeIn.Duration())
	}

	logger.InfoKV(ctx, "Alarm playing",
		"content", snap.Content.Label(),
		"volume", snap.Volume,
		"fade_in", fading,
		"attempt", attempt)

	message := fmt.Sprintf("Playing %s", snap.Content.Label())
	if fading {
		message = fmt.Sprintf("Playing %s, fading in over %d minutes", snap.Content.Label(), snap.FadeIn.Minutes)
	}

	if err := e.notifier.Success(ctx, "Alarm", message, snap); err != nil {
		logger.WarnKV(ctx, "Failed to deliver success notification", "error", err)
	}

	if e.monitor != nil {
		e.monitor.StartMonitoring(ctx, monitorID, snap)
	}
}

func (e *Executor) wake(ctx context.Context) actuator.WakeOutcome {
	res := actuator.WakeDevice(ctx, e.actuator)

	switch res.Outcome {
	case actuator.WakeActivated:
		logger.InfoKV(ctx, "Woke playback device", "device", res.Device.Name, "device_type", res.Device.Type)
	case actuator.WakeNoDevices:
		logger.Warn(ctx, "No playback devices available to wake")
	case actuator.WakeFailed:
		logger.WarnKV(ctx, "Device wake failed, continuing", "error", res.Err)
	case actuator.WakeAlreadyActive:
		logger.DebugKV(ctx, "Playback device already active", "device", res.Device.Name)
	}

	return res.Outcome
}

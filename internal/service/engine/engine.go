package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/alarmify/internal/actuator"
	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/notify"
	"github.com/oshokin/alarmify/internal/service/fade"
	"github.com/oshokin/alarmify/internal/service/scheduler"
	"github.com/oshokin/alarmify/internal/service/trigger"
	"github.com/oshokin/alarmify/internal/service/wake"
)

// ErrClosed is returned by mutations after Shutdown.
var ErrClosed = errors.New("alarm engine is shut down")

// Engine owns one set of alarms, snoozes, timers and workers. Several engines
// can live in one process; none of them uses global state.
type Engine struct {
	loop     *scheduler.Loop
	alarms   *scheduler.Alarms
	snoozes  *scheduler.Snoozes
	executor *trigger.Executor
	fader    *fade.Controller
	wake     *wake.Manager

	// mu lets mutations finish before Shutdown marks the engine closed.
	mu           sync.RWMutex
	closed       bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds an engine driving a through the settings of cfg. A nil cfg uses
// config.Default.
func New(a actuator.PlaybackActuator, n notify.Notifier, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	fader := fade.NewController(a, fade.WithStepInterval(cfg.Engine.FadeStepInterval))
	wakeManager := wake.NewManager(a, n, cfg.Wake, wake.WithFader(fader))

	executorOpts := []trigger.Option{
		trigger.WithMonitor(wakeManager),
		trigger.WithAttempts(cfg.Engine.TriggerAttempts),
		trigger.WithBaseDelay(cfg.Engine.RetryBaseDelay),
		trigger.WithFadeSupport(cfg.Engine.FadeIn()),
	}

	if cfg.Engine.FadeIn() {
		executorOpts = append(executorOpts, trigger.WithFader(fader))
	}

	executor := trigger.NewExecutor(a, n, executorOpts...)

	loop := scheduler.NewLoop(
		scheduler.WithPollInterval(cfg.Engine.PollInterval),
		scheduler.WithJoinTimeout(cfg.Engine.JoinTimeout),
	)

	return &Engine{
		loop:     loop,
		alarms:   scheduler.NewAlarms(loop, executor, scheduler.WithPreWaker(wakeManager)),
		snoozes:  scheduler.NewSnoozes(loop, executor),
		executor: executor,
		fader:    fader,
		wake:     wakeManager,
	}
}

// FadeInSupported reports the fade-in capability resolved at startup.
func (e *Engine) FadeInSupported() bool {
	return e.executor.FadeSupported()
}

// Add schedules an alarm; see scheduler.Alarms.Add.
func (e *Engine) Add(ctx context.Context, req alarm.Request) (alarm.Definition, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return alarm.Definition{}, ErrClosed
	}

	return e.alarms.Add(ctx, req)
}

// Remove drops the first alarm at the "HH:MM" time.
func (e *Engine) Remove(ctx context.Context, at string) (bool, error) {
	return e.alarms.Remove(ctx, at)
}

// RemoveByID drops the alarm with the given id.
func (e *Engine) RemoveByID(ctx context.Context, id string) bool {
	return e.alarms.RemoveByID(ctx, id)
}

// Clear drops every alarm.
func (e *Engine) Clear(ctx context.Context) int {
	return e.alarms.Clear(ctx)
}

// List returns the alarms in registration order.
func (e *Engine) List() []alarm.Definition {
	return e.alarms.List()
}

// Get returns the alarm with the given id.
func (e *Engine) Get(id string) (alarm.Definition, bool) {
	return e.alarms.Get(id)
}

// NextTrigger returns the next due instant of def.
func (e *Engine) NextTrigger(def alarm.Definition) (time.Time, bool) {
	return e.alarms.NextTrigger(def)
}

// Next returns the soonest occurrence over all alarms.
func (e *Engine) Next() (alarm.Occurrence, bool) {
	return e.alarms.Next()
}

// NextTriggerDisplay renders the wait until the soonest alarm, e.g. "in 2h 15m".
func (e *Engine) NextTriggerDisplay() (string, bool) {
	return e.alarms.NextTriggerDisplay()
}

// Upcoming lists every occurrence within the next days, soonest first.
func (e *Engine) Upcoming(days int) []alarm.Occurrence {
	return e.alarms.Upcoming(days)
}

// Snooze stops the running fade-in and health monitoring of the snapshot's
// alarm and schedules a replay in minutes.
func (e *Engine) Snooze(ctx context.Context, snap alarm.Snapshot, minutes int) (alarm.SnoozeEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return alarm.SnoozeEntry{}, ErrClosed
	}

	if err := alarm.ValidateSnooze(minutes); err != nil {
		return alarm.SnoozeEntry{}, err
	}

	e.fader.Stop()
	e.wake.StopMonitoring(ctx, snap.AlarmID)

	return e.snoozes.Snooze(ctx, snap, minutes)
}

// SnoozeAlarm snoozes a registered alarm by id.
func (e *Engine) SnoozeAlarm(ctx context.Context, alarmID string, minutes int) (alarm.SnoozeEntry, error) {
	def, ok := e.alarms.Get(alarmID)
	if !ok {
		return alarm.SnoozeEntry{}, fmt.Errorf("%q: %w", alarmID, alarm.ErrNotFound)
	}

	return e.Snooze(ctx, def.Snapshot(), minutes)
}

// ActiveSnoozes returns the snoozes not yet due.
func (e *Engine) ActiveSnoozes() []alarm.SnoozeEntry {
	return e.snoozes.Active()
}

// CancelSnooze drops a pending snooze.
func (e *Engine) CancelSnooze(ctx context.Context, id string) bool {
	return e.snoozes.Cancel(ctx, id)
}

// Dismiss ends the ringing alarm: the fade-in stops and the health monitor
// forgets it. It reports whether the alarm was being monitored.
func (e *Engine) Dismiss(ctx context.Context, alarmID string) bool {
	e.fader.Stop()

	stopped := e.wake.StopMonitoring(ctx, alarmID)

	logger.InfoKV(logger.WithName(ctx, "engine"), "Alarm dismissed", "alarm_id", alarmID, "was_monitored", stopped)

	return stopped
}

// Monitored returns the alarms under health monitoring.
func (e *Engine) Monitored() []wake.SessionInfo {
	return e.wake.Sessions()
}

// Shutdown stops every worker, cancels every timer and clears every
// collection. A subsystem that fails to stop in time does not keep the others
// running; all failures are returned together. Later calls return the result
// of the first.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() {
		ctx = logger.WithName(ctx, "engine")

		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		var err error

		err = multierr.Append(err, e.loop.Shutdown(ctx))

		e.snoozes.Shutdown(ctx)
		e.alarms.Clear(ctx)
		e.loop.Clear()
		e.fader.Stop()

		err = multierr.Append(err, e.wake.Shutdown(ctx))

		if err != nil {
			logger.WarnKV(ctx, "Engine shut down with errors", "error", err)
		} else {
			logger.Info(ctx, "Engine shut down")
		}

		e.shutdownErr = err
	})

	return e.shutdownErr
}

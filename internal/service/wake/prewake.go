package wake

import (
	"context"
	"time"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
)

type wakeTimer struct {
	timer *time.Timer
	gen   uint64

	clock alarm.Clock
	days  alarm.Weekdays
	// due is the alarm instant the timer precedes.
	due time.Time
	// at is when the timer fires.
	at time.Time
}

// SchedulePreWake arms a timer waking a device PreWake before the next due
// instant of the alarm, replacing any timer of the same alarm. When the wake
// instant has already passed the device is woken immediately and the timer is
// armed for the following occurrence.
func (m *Manager) SchedulePreWake(ctx context.Context, alarmID string, clock alarm.Clock, days alarm.Weekdays) {
	ctx = logger.WithKV(logger.WithName(context.WithoutCancel(ctx), "wake"), "alarm_id", alarmID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.cancelTimerLocked(alarmID)

	if m.armLocked(ctx, alarmID, clock, days, m.now()) {
		m.spawnLocked(ctx, "pre-wake", func() { m.wakeNow(ctx, "pre-wake") })
	}
}

// CancelPreWake drops the timer of the alarm; unknown ids are a logged no-op.
func (m *Manager) CancelPreWake(ctx context.Context, alarmID string) {
	ctx = logger.WithName(ctx, "wake")

	m.mu.Lock()
	found := m.cancelTimerLocked(alarmID)
	m.mu.Unlock()

	if !found {
		logger.DebugKV(ctx, "No pre-wake timer to cancel", "alarm_id", alarmID)

		return
	}

	logger.InfoKV(ctx, "Pre-wake cancelled", "alarm_id", alarmID)
}

// Timers returns the next pre-wake instant per alarm id.
func (m *Manager) Timers() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]time.Time, len(m.timers))
	for id, t := range m.timers {
		result[id] = t.at
	}

	return result
}

func (m *Manager) cancelTimerLocked(alarmID string) bool {
	t, ok := m.timers[alarmID]
	if !ok {
		return false
	}

	t.timer.Stop()
	delete(m.timers, alarmID)

	return true
}

// armLocked registers the timer for the first occurrence after `after` whose
// wake instant is still ahead. It reports whether an occurrence was skipped
// because its wake instant had passed, in which case the caller wakes now.
func (m *Manager) armLocked(ctx context.Context, alarmID string, clock alarm.Clock, days alarm.Weekdays, after time.Time) bool {
	var (
		now      = m.now()
		wakeLate bool
	)

	for {
		due, ok := alarm.NextOccurrence(clock, days, after)
		if !ok {
			return wakeLate
		}

		at := due.Add(-m.cfg.PreWake)
		if !at.After(now) {
			wakeLate = true
			after = due

			continue
		}

		m.nextGen++
		gen := m.nextGen

		m.timers[alarmID] = &wakeTimer{
			timer: time.AfterFunc(at.Sub(now), func() { m.fireTimer(ctx, alarmID, gen) }),
			gen:   gen,
			clock: clock,
			days:  days,
			due:   due,
			at:    at,
		}

		logger.DebugKV(ctx, "Pre-wake armed", "wake_at", at, "due", due)

		return wakeLate
	}
}

// fireTimer wakes the device and re-arms the timer for the next occurrence.
// Stale generations belong to replaced or cancelled timers and do nothing.
func (m *Manager) fireTimer(ctx context.Context, alarmID string, gen uint64) {
	m.mu.Lock()

	t, ok := m.timers[alarmID]
	if m.closed || !ok || t.gen != gen {
		m.mu.Unlock()

		return
	}

	delete(m.timers, alarmID)
	m.armLocked(ctx, alarmID, t.clock, t.days, t.due)
	m.spawnLocked(ctx, "pre-wake", func() { m.wakeNow(ctx, "pre-wake") })
	m.mu.Unlock()
}

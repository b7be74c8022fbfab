package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/trigger"
)

// Firer runs a due recurring alarm.
type Firer interface {
	// Fire applies the weekday gate and plays the alarm.
	Fire(ctx context.Context, def alarm.Definition) trigger.Result
}

// PreWaker wakes devices shortly before alarms are due.
type PreWaker interface {
	// SchedulePreWake (re)arms the pre-wake timer of an alarm.
	SchedulePreWake(ctx context.Context, alarmID string, at alarm.Clock, days alarm.Weekdays)
	// CancelPreWake drops the pre-wake timer of an alarm.
	CancelPreWake(ctx context.Context, alarmID string)
}

type registration struct {
	def    alarm.Definition
	handle Handle
}

// Alarms owns the recurring alarm definitions.
type Alarms struct {
	// loop fires the daily jobs.
	loop *Loop
	// firer plays due alarms.
	firer Firer
	// preWaker is optional.
	preWaker PreWaker
	// now returns the wall clock.
	now func() time.Time

	mu      sync.Mutex
	entries []registration
}

// AlarmsOption configures Alarms.
type AlarmsOption func(*Alarms)

// WithPreWaker registers pre-wake timers for every alarm.
func WithPreWaker(p PreWaker) AlarmsOption {
	return func(a *Alarms) {
		a.preWaker = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AlarmsOption {
	return func(a *Alarms) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAlarms creates an empty alarm collection on loop.
func NewAlarms(loop *Loop, firer Firer, opts ...AlarmsOption) *Alarms {
	a := &Alarms{
		loop:  loop,
		firer: firer,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Add validates req and registers the alarm. An alarm with the same id is
// replaced in place. The poll loop is started on first use.
func (a *Alarms) Add(ctx context.Context, req alarm.Request) (alarm.Definition, error) {
	ctx = logger.WithName(ctx, "alarms")

	def, unknown, err := alarm.NewDefinition(req)
	if err != nil {
		return alarm.Definition{}, err
	}

	if len(unknown) > 0 {
		logger.WarnKV(ctx, "Ignoring unrecognized weekdays",
			"alarm_id", def.ID,
			"unknown", unknown,
			"weekdays", def.Weekdays.String())
	}

	a.mu.Lock()

	handle := a.loop.Daily(def.ID, def.Time, func(jobCtx context.Context) {
		a.firer.Fire(jobCtx, def)
	})

	replaced := false

	for i := range a.entries {
		if a.entries[i].def.ID == def.ID {
			a.loop.Cancel(a.entries[i].handle)
			a.entries[i] = registration{def: def, handle: handle}
			replaced = true

			break
		}
	}

	if !replaced {
		a.entries = append(a.entries, registration{def: def, handle: handle})
	}
	a.mu.Unlock()

	if a.preWaker != nil {
		a.preWaker.SchedulePreWake(ctx, def.ID, def.Time, def.Weekdays)
	}

	a.loop.Start(ctx)

	logger.InfoKV(ctx, "Alarm scheduled",
		"alarm_id", def.ID,
		"time", def.Time.String(),
		"weekdays", def.Weekdays.String(),
		"volume", def.Volume,
		"fade_in", def.FadeIn.Enabled,
		"replaced", replaced)

	return def, nil
}

// Remove drops the first alarm registered at the given time. Removing a time
// without an alarm is a logged no-op.
func (a *Alarms) Remove(ctx context.Context, at string) (bool, error) {
	clock, err := alarm.ParseClock(at)
	if err != nil {
		return false, err
	}

	return a.removeWhere(logger.WithName(ctx, "alarms"), func(d alarm.Definition) bool {
		return d.Time == clock
	}), nil
}

// RemoveByID drops the alarm with the given id.
func (a *Alarms) RemoveByID(ctx context.Context, id string) bool {
	return a.removeWhere(logger.WithName(ctx, "alarms"), func(d alarm.Definition) bool {
		return d.ID == id
	})
}

func (a *Alarms) removeWhere(ctx context.Context, match func(alarm.Definition) bool) bool {
	a.mu.Lock()

	index := slices.IndexFunc(a.entries, func(r registration) bool { return match(r.def) })
	if index < 0 {
		a.mu.Unlock()
		logger.Info(ctx, "No matching alarm to remove")

		return false
	}

	removed := a.entries[index]
	a.entries = slices.Delete(a.entries, index, index+1)
	a.loop.Cancel(removed.handle)
	a.mu.Unlock()

	if a.preWaker != nil {
		a.preWaker.CancelPreWake(ctx, removed.def.ID)
	}

	logger.InfoKV(ctx, "Alarm removed", "alarm_id", removed.def.ID)

	return true
}

// Clear drops every alarm and returns how many were removed.
func (a *Alarms) Clear(ctx context.Context) int {
	ctx = logger.WithName(ctx, "alarms")

	a.mu.Lock()
	removed := a.entries
	a.entries = nil

	for _, r := range removed {
		a.loop.Cancel(r.handle)
	}
	a.mu.Unlock()

	if a.preWaker != nil {
		for _, r := range removed {
			a.preWaker.CancelPreWake(ctx, r.def.ID)
		}
	}

	logger.InfoKV(ctx, "Alarms cleared", "count", len(removed))

	return len(removed)
}

// List returns the definitions in registration order.
func (a *Alarms) List() []alarm.Definition {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]alarm.Definition, 0, len(a.entries))
	for _, r := range a.entries {
		result = append(result, r.def)
	}

	return result
}

// Get returns the alarm with the given id.
func (a *Alarms) Get(id string) (alarm.Definition, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.entries {
		if r.def.ID == id {
			return r.def, true
		}
	}

	return alarm.Definition{}, false
}

// NextTrigger returns the next due instant of def.
func (a *Alarms) NextTrigger(def alarm.Definition) (time.Time, bool) {
	return alarm.NextTrigger(def, a.now())
}

// Next returns the soonest occurrence over all alarms.
func (a *Alarms) Next() (alarm.Occurrence, bool) {
	var (
		now   = a.now()
		best  alarm.Occurrence
		found bool
	)

	for _, def := range a.List() {
		at, ok := alarm.NextTrigger(def, now)
		if ok && (!found || at.Before(best.At)) {
			best = alarm.Occurrence{At: at, Alarm: def}
			found = true
		}
	}

	return best, found
}

// NextTriggerDisplay renders the wait until the soonest alarm, e.g. "in 2h 15m".
func (a *Alarms) NextTriggerDisplay() (string, bool) {
	next, ok := a.Next()
	if !ok {
		return "", false
	}

	return alarm.FormatUntil(next.At.Sub(a.now())), true
}

// Upcoming lists every occurrence of every alarm within the next days, soonest
// first; ties keep registration order.
func (a *Alarms) Upcoming(days int) []alarm.Occurrence {
	if days <= 0 {
		return nil
	}

	var (
		now     = a.now()
		horizon = time.Duration(days) * 24 * time.Hour
		result  []alarm.Occurrence
	)

	for _, def := range a.List() {
		for _, at := range alarm.Occurrences(def, now, horizon) {
			result = append(result, alarm.Occurrence{At: at, Alarm: def})
		}
	}

	slices.SortStableFunc(result, func(x, y alarm.Occurrence) int {
		return x.At.Compare(y.At)
	})

	return result
}

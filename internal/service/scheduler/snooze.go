package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/trigger"
)

// Player replays a snapshot without the weekday gate.
type Player interface {
	// Play starts playback for the snapshot and opens a monitoring session named monitorID.
	Play(ctx context.Context, monitorID string, snap alarm.Snapshot) trigger.Result
}

type snoozeRegistration struct {
	entry  alarm.SnoozeEntry
	handle Handle
}

// Snoozes owns the pending one-shot replays.
type Snoozes struct {
	// loop fires the one-shot jobs.
	loop *Loop
	// player replays snapshots.
	player Player
	// now returns the wall clock.
	now func() time.Time

	mu      sync.Mutex
	entries []snoozeRegistration
}

// SnoozesOption configures Snoozes.
type SnoozesOption func(*Snoozes)

// WithSnoozeClock replaces time.Now.
func WithSnoozeClock(now func() time.Time) SnoozesOption {
	return func(s *Snoozes) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSnoozes creates an empty snooze collection on loop.
func NewSnoozes(loop *Loop, player Player, opts ...SnoozesOption) *Snoozes {
	s := &Snoozes{
		loop:   loop,
		player: player,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snooze schedules a replay of snap in minutes. The replay always fires,
// whatever the weekday, exactly once and never before its fire time.
func (s *Snoozes) Snooze(ctx context.Context, snap alarm.Snapshot, minutes int) (alarm.SnoozeEntry, error) {
	ctx = logger.WithName(ctx, "snoozes")

	if err := alarm.ValidateSnooze(minutes); err != nil {
		return alarm.SnoozeEntry{}, err
	}

	entry := alarm.SnoozeEntry{
		ID:       uuid.New().String(),
		FireAt:   s.now().Add(time.Duration(minutes) * time.Minute),
		Snapshot: snap,
	}

	s.mu.Lock()
	handle := s.loop.Once("snooze:"+entry.ID, entry.FireAt, func(jobCtx context.Context) {
		s.fire(jobCtx, entry)
	})
	s.entries = append(s.entries, snoozeRegistration{entry: entry, handle: handle})
	s.mu.Unlock()

	s.loop.Start(ctx)

	logger.InfoKV(ctx, "Alarm snoozed",
		"alarm_id", snap.AlarmID,
		"snooze_id", entry.ID,
		"minutes", minutes,
		"fire_at", entry.FireAt)

	return entry, nil
}

func (s *Snoozes) fire(ctx context.Context, entry alarm.SnoozeEntry) {
	s.mu.Lock()
	s.entries = slices.DeleteFunc(s.entries, func(r snoozeRegistration) bool {
		return r.entry.ID == entry.ID
	})
	s.mu.Unlock()

	ctx = logger.WithKV(logger.WithName(ctx, "snoozes"), "snooze_id", entry.ID)
	logger.InfoKV(ctx, "Snooze firing", "alarm_id", entry.Snapshot.AlarmID)

	s.player.Play(ctx, entry.Snapshot.AlarmID, entry.Snapshot)
}

// Active returns the snoozes not yet due. Entries whose fire time has passed
// are dropped on read.
func (s *Snoozes) Active() []alarm.SnoozeEntry {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slices.DeleteFunc(s.entries, func(r snoozeRegistration) bool {
		return !r.entry.FireAt.After(now)
	})

	result := make([]alarm.SnoozeEntry, 0, len(s.entries))
	for _, r := range s.entries {
		result = append(result, r.entry)
	}

	return result
}

// Cancel drops a pending snooze.
func (s *Snoozes) Cancel(ctx context.Context, id string) bool {
	s.mu.Lock()
	index := slices.IndexFunc(s.entries, func(r snoozeRegistration) bool { return r.entry.ID == id })

	if index < 0 {
		s.mu.Unlock()
		logger.InfoKV(ctx, "No snooze to cancel", "snooze_id", id)

		return false
	}

	s.loop.Cancel(s.entries[index].handle)
	s.entries = slices.Delete(s.entries, index, index+1)
	s.mu.Unlock()

	return true
}

// Shutdown cancels every pending snooze.
func (s *Snoozes) Shutdown(ctx context.Context) {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil

	for _, r := range entries {
		s.loop.Cancel(r.handle)
	}
	s.mu.Unlock()

	logger.InfoKV(logger.WithName(ctx, "snoozes"), "Snoozes cancelled", "count", len(entries))
}

package scheduler

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/service/trigger"
)

type recordingPlayer struct {
	mu     sync.Mutex
	played []string
	at     []time.Time
}

func (p *recordingPlayer) Play(_ context.Context, monitorID string, _ alarm.Snapshot) trigger.Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.played = append(p.played, monitorID)
	p.at = append(p.at, time.Now())

	return trigger.Result{Status: trigger.StatusPlayed}
}

func (p *recordingPlayer) Played() ([]string, []time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.played...), append([]time.Time(nil), p.at...)
}

func snapshot() alarm.Snapshot {
	return alarm.Snapshot{
		AlarmID: "07:00@spotify:playlist:morning",
		Content: alarm.Content{Ref: "spotify:playlist:morning", Name: "Morning Energy"},
		Volume:  60,
	}
}

// TestSnoozes_FiresOnceAfterFireTime checks the snooze lifecycle on fake time.
func TestSnoozes_FiresOnceAfterFireTime(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		loop := NewLoop()
		player := &recordingPlayer{}
		s := NewSnoozes(loop, player)

		start := time.Now()

		entry, err := s.Snooze(ctx, snapshot(), 5)
		require.NoError(t, err)
		require.NotEmpty(t, entry.ID)

		active := s.Active()
		require.Len(t, active, 1)
		require.WithinRange(t, active[0].FireAt, start.Add(5*time.Minute-time.Second), start.Add(5*time.Minute+5*time.Second))
		require.Equal(t, 60, active[0].Snapshot.Volume)

		time.Sleep(5*time.Minute - time.Second)
		synctest.Wait()

		played, _ := player.Played()
		require.Empty(t, played)

		time.Sleep(2 * time.Second)
		synctest.Wait()

		played, at := player.Played()
		require.Equal(t, []string{"07:00@spotify:playlist:morning"}, played)
		require.False(t, at[0].Before(entry.FireAt))
		require.Empty(t, s.Active())

		time.Sleep(time.Hour)
		synctest.Wait()

		played, _ = player.Played()
		require.Len(t, played, 1)

		require.NoError(t, loop.Stop(ctx))
	})
}

// TestSnoozes_ActiveDropsExpired filters lazily on read.
func TestSnoozes_ActiveDropsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 14, 7, 0, 0, 0, time.UTC)
	loop := NewLoop()
	s := NewSnoozes(loop, &recordingPlayer{}, WithSnoozeClock(func() time.Time { return now }))

	_, err := s.Snooze(context.Background(), snapshot(), 5)
	require.NoError(t, err)
	require.NoError(t, loop.Stop(context.Background()))

	require.Len(t, s.Active(), 1)

	now = now.Add(6 * time.Minute)
	require.Empty(t, s.Active())
}

// TestSnoozes_ShutdownAndCancel drops pending replays.
func TestSnoozes_ShutdownAndCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		loop := NewLoop()
		player := &recordingPlayer{}
		s := NewSnoozes(loop, player)

		first, err := s.Snooze(ctx, snapshot(), 10)
		require.NoError(t, err)

		_, err = s.Snooze(ctx, snapshot(), 15)
		require.NoError(t, err)

		require.True(t, s.Cancel(ctx, first.ID))
		require.False(t, s.Cancel(ctx, first.ID))
		require.Len(t, s.Active(), 1)

		s.Shutdown(ctx)
		require.Empty(t, s.Active())
		require.Zero(t, loop.Pending())

		time.Sleep(20 * time.Minute)
		synctest.Wait()

		played, _ := player.Played()
		require.Empty(t, played)

		_, err = s.Snooze(ctx, snapshot(), 0)
		require.ErrorIs(t, err, alarm.ErrInvalidSnooze)

		require.NoError(t, loop.Stop(ctx))
	})
}

// TestSnoozes_RejectsOutOfRangeMinutes refuses durations that would not land
// in the future.
func TestSnoozes_RejectsOutOfRangeMinutes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		loop := NewLoop()
		player := &recordingPlayer{}
		s := NewSnoozes(loop, player)

		for _, minutes := range []int{0, -1, alarm.MaxSnoozeMinutes + 1, 200_000_000} {
			_, err := s.Snooze(ctx, snapshot(), minutes)
			require.ErrorIs(t, err, alarm.ErrInvalidSnooze, "minutes=%d", minutes)
		}

		require.Zero(t, loop.Pending())
		require.False(t, loop.Running())

		entry, err := s.Snooze(ctx, snapshot(), alarm.MaxSnoozeMinutes)
		require.NoError(t, err)
		require.Equal(t, time.Now().Add(24*time.Hour), entry.FireAt)

		time.Sleep(2 * time.Second)
		synctest.Wait()

		played, _ := player.Played()
		require.Empty(t, played)
		require.Len(t, s.Active(), 1)

		s.Shutdown(ctx)
		require.NoError(t, loop.Stop(ctx))
	})
}

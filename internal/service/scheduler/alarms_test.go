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

type recordingFirer struct {
	mu    sync.Mutex
	fired []alarm.Definition
}

func (f *recordingFirer) Fire(_ context.Context, def alarm.Definition) trigger.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fired = append(f.fired, def)

	return trigger.Result{Status: trigger.StatusPlayed}
}

func (f *recordingFirer) Fired() []alarm.Definition {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]alarm.Definition(nil), f.fired...)
}

type recordingPreWaker struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (p *recordingPreWaker) SchedulePreWake(_ context.Context, alarmID string, _ alarm.Clock, _ alarm.Weekdays) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scheduled = append(p.scheduled, alarmID)
}

func (p *recordingPreWaker) CancelPreWake(_ context.Context, alarmID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelled = append(p.cancelled, alarmID)
}

func morningRequest(at string, days ...string) alarm.Request {
	return alarm.Request{
		Time:     at,
		Content:  alarm.Content{Ref: "spotify:playlist:morning", Name: "Morning Energy"},
		Volume:   80,
		FadeIn:   alarm.FadeIn{Enabled: true, Minutes: 15},
		Weekdays: days,
	}
}

// TestAlarms_MondayWednesdayFriday lists the definition and its upcoming week.
func TestAlarms_MondayWednesdayFriday(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		wednesday := time.Date(2026, time.October, 14, 8, 30, 0, 0, time.UTC)

		loop := NewLoop()
		a := NewAlarms(loop, &recordingFirer{}, WithClock(func() time.Time { return wednesday }))

		def, err := a.Add(context.Background(), morningRequest("07:00", "Monday", "Wednesday", "Friday"))
		require.NoError(t, err)

		list := a.List()
		require.Len(t, list, 1)
		require.Equal(t, def, list[0])
		require.Equal(t, alarm.Clock{Hour: 7, Minute: 0}, list[0].Time)
		require.Equal(t, 80, list[0].Volume)
		require.Equal(t, alarm.FadeIn{Enabled: true, Minutes: 15}, list[0].FadeIn)
		require.Equal(t, []string{"Monday", "Wednesday", "Friday"}, list[0].Weekdays.Names())

		upcoming := a.Upcoming(7)
		require.Len(t, upcoming, 3)

		for _, o := range upcoming {
			require.Contains(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, o.At.Weekday())
		}

		require.Equal(t, time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC), upcoming[0].At)

		next, ok := a.NextTrigger(def)
		require.True(t, ok)
		require.Equal(t, upcoming[0].At, next)

		display, ok := a.NextTriggerDisplay()
		require.True(t, ok)
		require.Equal(t, "in 1d 22h", display)

		require.NoError(t, loop.Stop(context.Background()))
	})
}

// TestAlarms_AddRemoveRoundTrip restores the list and tolerates a second remove.
func TestAlarms_AddRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		loop := NewLoop()
		preWaker := &recordingPreWaker{}
		a := NewAlarms(loop, &recordingFirer{}, WithPreWaker(preWaker))

		_, err := a.Add(ctx, morningRequest("06:30"))
		require.NoError(t, err)

		before := a.List()

		_, err = a.Add(ctx, morningRequest("07:15"))
		require.NoError(t, err)
		require.Equal(t, 2, loop.Pending())

		removed, err := a.Remove(ctx, "07:15")
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, before, a.List())
		require.Equal(t, 1, loop.Pending())

		removed, err = a.Remove(ctx, "07:15")
		require.NoError(t, err)
		require.False(t, removed)

		_, err = a.Remove(ctx, "7:15")
		require.ErrorIs(t, err, alarm.ErrInvalidTimeFormat)

		require.Equal(t, []string{"06:30@spotify:playlist:morning", "07:15@spotify:playlist:morning"}, preWaker.scheduled)
		require.Equal(t, []string{"07:15@spotify:playlist:morning"}, preWaker.cancelled)

		require.Equal(t, 1, a.Clear(ctx))
		require.Empty(t, a.List())
		require.Zero(t, loop.Pending())
		require.Len(t, preWaker.cancelled, 2)

		require.NoError(t, loop.Stop(ctx))
	})
}

// TestAlarms_RejectsInvalidInput surfaces invalid input synchronously.
func TestAlarms_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	a := NewAlarms(NewLoop(), &recordingFirer{})

	for _, at := range []string{"24:00", "7:00", "07:60", "", "ab:cd"} {
		_, err := a.Add(context.Background(), morningRequest(at))
		require.ErrorIs(t, err, alarm.ErrInvalidTimeFormat, at)
		require.True(t, alarm.IsInvalidInput(err))
	}

	require.Empty(t, a.List())
}

// TestAlarms_SameIDReplaces keeps one registration per id.
func TestAlarms_SameIDReplaces(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		loop := NewLoop()
		a := NewAlarms(loop, &recordingFirer{})

		_, err := a.Add(ctx, morningRequest("07:00"))
		require.NoError(t, err)

		req := morningRequest("07:00")
		req.Volume = 40

		def, err := a.Add(ctx, req)
		require.NoError(t, err)

		require.Len(t, a.List(), 1)
		require.Equal(t, 1, loop.Pending())

		got, ok := a.Get(def.ID)
		require.True(t, ok)
		require.Equal(t, 40, got.Volume)

		require.True(t, a.RemoveByID(ctx, def.ID))
		require.False(t, a.RemoveByID(ctx, def.ID))

		require.NoError(t, loop.Stop(ctx))
	})
}

// TestAlarms_FiresThroughLoop dispatches a due alarm to the firer.
func TestAlarms_FiresThroughLoop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		firer := &recordingFirer{}
		loop := NewLoop()
		a := NewAlarms(loop, firer)

		due := time.Now().Add(2 * time.Minute)

		_, err := a.Add(ctx, morningRequest(due.Format("15:04")))
		require.NoError(t, err)

		time.Sleep(2*time.Minute + 500*time.Millisecond)
		synctest.Wait()

		fired := firer.Fired()
		require.Len(t, fired, 1)
		require.Equal(t, 80, fired[0].Volume)

		require.NoError(t, loop.Stop(ctx))
	})
}

// TestAlarms_UnknownWeekdaysCollapse falls back to every day.
func TestAlarms_UnknownWeekdaysCollapse(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		loop := NewLoop()
		a := NewAlarms(loop, &recordingFirer{})

		def, err := a.Add(context.Background(), morningRequest("07:00", "Funday"))
		require.NoError(t, err)
		require.True(t, def.Weekdays.IsEveryDay())

		require.NoError(t, loop.Stop(context.Background()))
	})
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// clockIn returns the clock of now+d.
func clockIn(d time.Duration) alarm.Clock {
	at := time.Now().Add(d)

	return alarm.Clock{Hour: at.Hour(), Minute: at.Minute()}
}

// TestLoop_DailyJobRearms fires a daily job once per day.
func TestLoop_DailyJobRearms(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32

		l := NewLoop()
		h := l.Daily("daily", clockIn(time.Minute), func(context.Context) { fired.Add(1) })
		require.True(t, h.Valid())

		l.Start(context.Background())
		l.Start(context.Background())
		require.True(t, l.Running())

		time.Sleep(59 * time.Second)
		synctest.Wait()
		require.Zero(t, fired.Load())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.Equal(t, int32(1), fired.Load())

		next, ok := l.NextRun(h)
		require.True(t, ok)
		require.Equal(t, 24*time.Hour, next.Sub(time.Now().Truncate(time.Minute)))

		time.Sleep(24 * time.Hour)
		synctest.Wait()
		require.Equal(t, int32(2), fired.Load())
		require.Equal(t, 1, l.Pending())

		require.NoError(t, l.Stop(context.Background()))
		require.False(t, l.Running())
		require.NoError(t, l.Stop(context.Background()))
	})
}

// TestLoop_OnceFiresOnce removes one-shot jobs after firing.
func TestLoop_OnceFiresOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32

		l := NewLoop()
		l.Once("once", time.Now().Add(90*time.Second), func(context.Context) { fired.Add(1) })
		cancelled := l.Once("cancelled", time.Now().Add(30*time.Second), func(context.Context) { fired.Add(10) })
		require.True(t, l.Cancel(cancelled))
		require.False(t, l.Cancel(cancelled))

		l.Start(context.Background())

		time.Sleep(10 * time.Minute)
		synctest.Wait()
		require.Equal(t, int32(1), fired.Load())
		require.Zero(t, l.Pending())

		require.NoError(t, l.Stop(context.Background()))
	})
}

// TestLoop_PanickingJobKeepsLoopAlive recovers job panics.
func TestLoop_PanickingJobKeepsLoopAlive(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32

		l := NewLoop()
		l.Once("panics", time.Now().Add(time.Second), func(context.Context) { panic("broken job") })
		l.Once("healthy", time.Now().Add(3*time.Second), func(context.Context) { fired.Add(1) })
		l.Start(context.Background())

		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, int32(1), fired.Load())
		require.True(t, l.Running())

		require.NoError(t, l.Stop(context.Background()))
	})
}

// TestLoop_StopCancelsRunningJobs cancels the job context and reports slow joins.
func TestLoop_StopCancelsRunningJobs(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		release := make(chan struct{})

		l := NewLoop(WithJoinTimeout(time.Second))
		l.Once("cooperative", time.Now(), func(ctx context.Context) { <-ctx.Done() })
		l.Once("stubborn", time.Now(), func(context.Context) { <-release })
		l.Start(context.Background())

		time.Sleep(time.Second)
		synctest.Wait()

		require.ErrorIs(t, l.Stop(context.Background()), ErrJoinTimeout)

		close(release)
		synctest.Wait()
	})
}

// TestLoop_ShutdownRefusesStart keeps a shut down loop stopped.
func TestLoop_ShutdownRefusesStart(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()

		l := NewLoop()
		l.Start(ctx)
		require.True(t, l.Running())

		require.NoError(t, l.Shutdown(ctx))
		require.False(t, l.Running())

		l.Once("late", time.Now(), func(context.Context) {})
		l.Start(ctx)
		require.False(t, l.Running())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.Equal(t, 1, l.Pending())
	})
}

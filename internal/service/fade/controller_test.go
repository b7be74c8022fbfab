package fade

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// TestController_RunsToCompletion drives a one minute ramp on fake time.
func TestController_RunsToCompletion(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		volume := &recordingVolume{}
		c := NewController(volume)

		session := c.Start(context.Background(), 80, time.Minute)
		require.True(t, c.Active())
		require.Equal(t, 12, session.TotalSteps())

		time.Sleep(30*time.Second + time.Millisecond)
		synctest.Wait()
		require.Equal(t, 6, session.Step())
		require.Equal(t, 40, session.Current())

		time.Sleep(30 * time.Second)
		synctest.Wait()
		require.False(t, c.Active())
		require.Equal(t, 80, session.Current())

		values := volume.Values()
		require.Len(t, values, 13)
		require.Equal(t, 80, values[len(values)-1])

		c.Stop()
	})
}

// TestController_StartStopsPrevious keeps a single owner.
func TestController_StartStopsPrevious(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		c := NewController(&recordingVolume{}, WithStepInterval(time.Second))

		first := c.Start(context.Background(), 100, 10*time.Minute)
		time.Sleep(3*time.Second + time.Millisecond)
		synctest.Wait()

		second := c.Start(context.Background(), 50, 5*time.Minute)
		require.Equal(t, StateStopped, first.State())
		require.True(t, second.Active())
		require.Same(t, second, c.Current())

		c.Stop()
		c.Stop()
		require.False(t, c.Active())
		require.Equal(t, StateStopped, second.State())
	})
}

package fade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingVolume struct {
	mu     sync.Mutex
	values []int
	err    error
}

func (r *recordingVolume) SetVolume(_ context.Context, percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = append(r.values, percent)

	return r.err
}

func (r *recordingVolume) Values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.values...)
}

// TestSession_TenMinutesToFull steps a ten minute ramp to completion.
func TestSession_TenMinutesToFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	volume := &recordingVolume{}
	s := NewSession(volume, 100, 10*time.Minute, DefaultStepInterval)

	require.Equal(t, 120, s.TotalSteps())
	require.Equal(t, StatePending, s.State())
	require.NoError(t, s.Begin(ctx))
	require.True(t, s.Active())

	var (
		steps    int
		previous int
	)

	for {
		finished, err := s.Advance(ctx)
		require.NoError(t, err)

		steps++

		require.GreaterOrEqual(t, s.Current(), previous)
		require.LessOrEqual(t, s.Current(), 100)
		previous = s.Current()

		if finished {
			break
		}
	}

	require.Equal(t, 120, steps)
	require.Equal(t, 100, s.Current())
	require.Equal(t, StateStopped, s.State())

	values := volume.Values()
	require.Len(t, values, 121)
	require.Equal(t, 0, values[0])
	require.Equal(t, 100, values[len(values)-1])

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel is still open")
	}

	finished, err := s.Advance(ctx)
	require.NoError(t, err)
	require.True(t, finished)
	require.Len(t, volume.Values(), 121)
}

// TestSession_StopIsIdempotent stops mid-ramp twice.
func TestSession_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(&recordingVolume{}, 60, 5*time.Minute, DefaultStepInterval)

	require.NoError(t, s.Begin(ctx))
	_, err := s.Advance(ctx)
	require.NoError(t, err)

	s.Stop()
	s.Stop()

	require.Equal(t, StateStopped, s.State())
	require.Equal(t, 1, s.Step())
	require.Equal(t, 1, s.Current())
}

// TestSession_ShortDuration takes at least one step.
func TestSession_ShortDuration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(&recordingVolume{}, 40, time.Second, DefaultStepInterval)
	require.Equal(t, 1, s.TotalSteps())

	require.NoError(t, s.Begin(ctx))

	finished, err := s.Advance(ctx)
	require.NoError(t, err)
	require.True(t, finished)
	require.Equal(t, 40, s.Current())
}

// TestSession_BeginFailureStillActivates keeps the ramp when silencing fails.
func TestSession_BeginFailureStillActivates(t *testing.T) {
	t.Parallel()

	volume := &recordingVolume{err: errors.New("offline")}
	s := NewSession(volume, 50, time.Minute, DefaultStepInterval)

	require.Error(t, s.Begin(context.Background()))
	require.True(t, s.Active())
}

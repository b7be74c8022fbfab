package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// TestMulti_CallsEveryNotifier keeps delivering after a failing notifier.
func TestMulti_CallsEveryNotifier(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		notified  []string
		alerted   []string
		successes int
	)

	failing := NewDesktopWith(
		func(string, string) error { return errors.New("no dbus") },
		func(string, string) error { return errors.New("no dbus") },
	)
	recording := NewDesktopWith(
		func(title, _ string) error {
			notified = append(notified, title)

			return nil
		},
		func(title, _ string) error {
			alerted = append(alerted, title)

			return nil
		},
	)
	callbacks := Funcs{
		OnSuccess: func(_ context.Context, _, _ string, snap alarm.Snapshot) {
			require.Equal(t, "07:00@x", snap.AlarmID)
			successes++
		},
	}

	m := Multi{Log{}, failing, recording, callbacks}

	err := m.Success(ctx, "Alarm", "Playing", alarm.Snapshot{AlarmID: "07:00@x"})
	require.Error(t, err)
	require.Equal(t, 1, successes)
	require.Equal(t, []string{"Alarm"}, notified)

	require.Error(t, m.Failure(ctx, "Alarm failed", "network"))
	require.Error(t, m.Fallback(ctx, "Alarm stopped", "device dropped"))
	require.Equal(t, []string{"Alarm failed", "Alarm stopped"}, alerted)
}

// TestFuncs_NilCallbacks ignores missing handlers.
func TestFuncs_NilCallbacks(t *testing.T) {
	t.Parallel()

	var f Funcs

	ctx := context.Background()
	require.NoError(t, f.Success(ctx, "a", "b", alarm.Snapshot{}))
	require.NoError(t, f.Failure(ctx, "a", "b"))
	require.NoError(t, f.Fallback(ctx, "a", "b"))
}

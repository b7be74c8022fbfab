package actuator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/actuator"
	"github.com/oshokin/alarmify/internal/actuator/mock"
)

// TestPickDevice prefers computers, then the first device with an id.
func TestPickDevice(t *testing.T) {
	t.Parallel()

	d, ok := actuator.PickDevice([]actuator.Device{
		{ID: "phone", Type: "Smartphone"},
		{ID: "", Type: "Computer"},
		{ID: "pc", Type: "desktop"},
	})
	require.True(t, ok)
	require.Equal(t, "pc", d.ID)

	d, ok = actuator.PickDevice([]actuator.Device{{Type: "Speaker"}, {ID: "phone", Type: "Smartphone"}})
	require.True(t, ok)
	require.Equal(t, "phone", d.ID)

	_, ok = actuator.PickDevice(nil)
	require.False(t, ok)
}

// TestWakeDevice covers each outcome.
func TestWakeDevice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	a := mock.New()
	res := actuator.WakeDevice(ctx, a)
	require.Equal(t, actuator.WakeActivated, res.Outcome)
	require.Equal(t, "mock_desktop_1", res.Device.ID)
	require.True(t, res.OK())

	res = actuator.WakeDevice(ctx, a)
	require.Equal(t, actuator.WakeAlreadyActive, res.Outcome)
	require.Len(t, a.CallsOf(actuator.OpActivate), 1)

	empty := mock.New(mock.WithDevices())
	res = actuator.WakeDevice(ctx, empty)
	require.Equal(t, actuator.WakeNoDevices, res.Outcome)
	require.False(t, res.OK())

	broken := mock.New()
	broken.Fail(actuator.OpActiveDevice, errors.New("connection reset"), 1)
	res = actuator.WakeDevice(ctx, broken)
	require.Equal(t, actuator.WakeFailed, res.Outcome)
	require.Error(t, res.Err)
	require.Equal(t, "failed", res.Outcome.String())
}

package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/actuator"
)

var errBoom = errors.New("boom")

// TestActuator_PlaybackNeedsActiveDevice checks the realistic device gate.
func TestActuator_PlaybackNeedsActiveDevice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := New()

	err := a.StartPlayback(ctx, "spotify:playlist:x")
	require.Error(t, err)
	require.Equal(t, actuator.CauseNoActiveDevice, actuator.Classify(err))

	require.NoError(t, a.Activate(ctx, "mock_phone_1", false))

	active, err := a.ActiveDevice(ctx)
	require.NoError(t, err)
	require.Equal(t, "mock_phone_1", active.ID)

	require.NoError(t, a.StartPlayback(ctx, "spotify:playlist:x"))
	require.Equal(t, "spotify:playlist:x", a.Playing())
}

// TestActuator_Entitlement rejects playback for unentitled accounts.
func TestActuator_Entitlement(t *testing.T) {
	t.Parallel()

	a := New(WithEntitlement(false))
	a.SetActive("mock_desktop_1")

	err := a.StartPlayback(context.Background(), "x")
	require.Equal(t, actuator.CauseEntitlement, actuator.Classify(err))
}

// TestActuator_FailureInjection covers counted and permanent failures.
func TestActuator_FailureInjection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := New()

	a.Fail(actuator.OpSetVolume, errBoom, 2)
	require.ErrorIs(t, a.SetVolume(ctx, 10), errBoom)
	require.ErrorIs(t, a.SetVolume(ctx, 10), errBoom)
	require.NoError(t, a.SetVolume(ctx, 150))
	require.Equal(t, 100, a.Volume())

	a.Fail(actuator.OpDevices, errBoom, -1)

	for range 5 {
		_, err := a.Devices(ctx)
		require.ErrorIs(t, err, errBoom)
	}

	a.Fail(actuator.OpDevices, nil, 0)

	devices, err := a.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 3)

	require.Len(t, a.CallsOf(actuator.OpSetVolume), 3)
	require.Len(t, a.CallsOf(actuator.OpDevices), 6)
}

// TestActuator_NonStickyActivation leaves devices idle after Activate.
func TestActuator_NonStickyActivation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := New(WithStickyActivation(false))

	require.NoError(t, a.Activate(ctx, "mock_desktop_1", false))

	active, err := a.ActiveDevice(ctx)
	require.NoError(t, err)
	require.Nil(t, active)

	require.Error(t, a.Activate(ctx, "nope", false))
}

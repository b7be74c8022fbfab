package actuator

import "context"

// Device is a playback target known to the service.
type Device struct {
	// ID is the service-side identifier.
	ID string
	// Name is the display name.
	Name string
	// Type is the device class, e.g. "Computer", "Smartphone", "Speaker".
	Type string
	// Active reports whether the device currently owns playback.
	Active bool
	// Volume is the last known volume percentage.
	Volume int
}

// PlaybackActuator is the remote playback capability.
type PlaybackActuator interface {
	// ActiveDevice returns the device owning playback, or nil when none is active.
	ActiveDevice(ctx context.Context) (*Device, error)
	// Devices lists all devices available to the account.
	Devices(ctx context.Context) ([]Device, error)
	// Activate moves playback to the device, optionally starting it.
	Activate(ctx context.Context, deviceID string, forcePlay bool) error
	// SetVolume sets the volume of the active device.
	SetVolume(ctx context.Context, percent int) error
	// StartPlayback plays the referenced content on the active device.
	StartPlayback(ctx context.Context, contentRef string) error
}

// Op names an actuator operation, for errors and call recording.
type Op string

// Actuator operations.
const (
	OpActiveDevice  Op = "active_device"
	OpDevices       Op = "devices"
	OpActivate      Op = "activate"
	OpSetVolume     Op = "set_volume"
	OpStartPlayback Op = "start_playback"
)

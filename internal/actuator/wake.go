package actuator

import (
	"context"
	"fmt"
	"strings"
)

// WakeOutcome is the result class of a best-effort device wake.
type WakeOutcome int

// Wake outcomes.
const (
	// WakeAlreadyActive means a device already owned playback; nothing was done.
	WakeAlreadyActive WakeOutcome = iota
	// WakeActivated means an idle device was activated.
	WakeActivated
	// WakeNoDevices means the account has no usable device.
	WakeNoDevices
	// WakeFailed means an actuator call failed.
	WakeFailed
)

// String implements fmt.Stringer.
func (o WakeOutcome) String() string {
	switch o {
	case WakeAlreadyActive:
		return "already_active"
	case WakeActivated:
		return "activated"
	case WakeNoDevices:
		return "no_devices"
	case WakeFailed:
		return "failed"
	default:
		return fmt.Sprintf("wake_outcome(%d)", int(o))
	}
}

// WakeResult reports what a wake attempt did. It replaces exception-style
// swallowing: callers decide how to log a failed wake.
type WakeResult struct {
	// Outcome classifies the attempt.
	Outcome WakeOutcome
	// Device is the device found active or activated.
	Device Device
	// Err is the failure behind WakeFailed.
	Err error
}

// OK reports whether a device owns playback after the attempt.
func (r WakeResult) OK() bool {
	return r.Outcome == WakeAlreadyActive || r.Outcome == WakeActivated
}

// preferredTypes are tried before any other device class.
//
//nolint:gochecknoglobals // Read-only lookup table.
var preferredTypes = []string{"computer", "desktop"}

// WakeDevice makes sure some device owns playback. When none is active it
// activates a computer/desktop device if there is one, otherwise the first
// listed device, without starting playback.
func WakeDevice(ctx context.Context, a PlaybackActuator) WakeResult {
	active, err := a.ActiveDevice(ctx)
	if err != nil {
		return WakeResult{Outcome: WakeFailed, Err: err}
	}

	if active != nil {
		return WakeResult{Outcome: WakeAlreadyActive, Device: *active}
	}

	devices, err := a.Devices(ctx)
	if err != nil {
		return WakeResult{Outcome: WakeFailed, Err: err}
	}

	device, ok := PickDevice(devices)
	if !ok {
		return WakeResult{Outcome: WakeNoDevices}
	}

	if err = a.Activate(ctx, device.ID, false); err != nil {
		return WakeResult{Outcome: WakeFailed, Device: device, Err: err}
	}

	device.Active = true

	return WakeResult{Outcome: WakeActivated, Device: device}
}

// PickDevice chooses the wake target: the first computer/desktop device, else
// the first device. Devices without an id cannot be activated and are skipped.
func PickDevice(devices []Device) (Device, bool) {
	var (
		fallback  Device
		haveFirst bool
	)

	for _, d := range devices {
		if d.ID == "" {
			continue
		}

		for _, preferred := range preferredTypes {
			if strings.EqualFold(d.Type, preferred) {
				return d, true
			}
		}

		if !haveFirst {
			fallback, haveFirst = d, true
		}
	}

	return fallback, haveFirst
}

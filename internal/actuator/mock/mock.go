// Package mock provides an in-memory playback actuator for tests and for
// running the daemon without a real playback service.
package mock

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/oshokin/alarmify/internal/actuator"
)

var (
	errNoActiveDevice = errors.New("no active device found")
	errUnknownDevice  = errors.New("device not found")
	errNotEntitled    = errors.New("playback requires a premium subscription")
)

// Call records one actuator invocation.
type Call struct {
	// Op is the invoked operation.
	Op actuator.Op
	// Arg is the device id, content reference or volume rendered as text.
	Arg string
	// Volume is the requested volume for OpSetVolume.
	Volume int
	// At is when the call was made.
	At time.Time
	// Err is what the call returned.
	Err error
}

// Actuator is a thread-safe fake playback service.
type Actuator struct {
	mu sync.Mutex

	devices  []actuator.Device
	entitled bool
	sticky   bool

	volume  int
	playing string

	// failures holds injected errors per operation; a negative count means forever.
	failures map[actuator.Op]*failure
	calls    []Call
}

type failure struct {
	err       error
	remaining int
}

// Option configures the mock.
type Option func(*Actuator)

// WithDevices replaces the default device list.
func WithDevices(devices ...actuator.Device) Option {
	return func(a *Actuator) {
		a.devices = append([]actuator.Device(nil), devices...)
	}
}

// WithEntitlement controls whether playback is allowed.
func WithEntitlement(entitled bool) Option {
	return func(a *Actuator) {
		a.entitled = entitled
	}
}

// WithStickyActivation controls whether Activate really makes a device active.
// Non-sticky activation simulates a device that drops straight back to sleep.
func WithStickyActivation(sticky bool) Option {
	return func(a *Actuator) {
		a.sticky = sticky
	}
}

// DefaultDevices mirrors a typical account: a computer, a phone and a speaker, none active.
func DefaultDevices() []actuator.Device {
	return []actuator.Device{
		{ID: "mock_desktop_1", Name: "Your Computer", Type: "Computer", Volume: 50},
		{ID: "mock_phone_1", Name: "Your Phone", Type: "Smartphone", Volume: 80},
		{ID: "mock_speaker_1", Name: "Living Room Speaker", Type: "Speaker", Volume: 60},
	}
}

// New creates a mock with the default devices, entitled and with sticky activation.
func New(opts ...Option) *Actuator {
	a := &Actuator{
		devices:  DefaultDevices(),
		entitled: true,
		sticky:   true,
		failures: make(map[actuator.Op]*failure),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Fail makes the next n calls of op return err; n < 0 fails forever, n == 0 clears.
func (a *Actuator) Fail(op actuator.Op, err error, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n == 0 {
		delete(a.failures, op)

		return
	}

	a.failures[op] = &failure{err: err, remaining: n}
}

// SetActive marks the device active, or deactivates all devices for an empty id.
func (a *Actuator) SetActive(deviceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.devices {
		a.devices[i].Active = a.devices[i].ID == deviceID
	}
}

// Calls returns a copy of the recorded calls.
func (a *Actuator) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]Call(nil), a.calls...)
}

// CallsOf returns the recorded calls of one operation.
func (a *Actuator) CallsOf(op actuator.Op) []Call {
	a.mu.Lock()
	defer a.mu.Unlock()

	var result []Call

	for _, c := range a.calls {
		if c.Op == op {
			result = append(result, c)
		}
	}

	return result
}

// Volume returns the last volume set successfully.
func (a *Actuator) Volume() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.volume
}

// Playing returns the content reference currently playing.
func (a *Actuator) Playing() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.playing
}

// ActiveDevice implements actuator.PlaybackActuator.
func (a *Actuator) ActiveDevice(context.Context) (*actuator.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.record(actuator.OpActiveDevice, "", 0); err != nil {
		return nil, err
	}

	for _, d := range a.devices {
		if d.Active {
			found := d

			return &found, nil
		}
	}

	return nil, nil //nolint:nilnil // No active device is a valid answer.
}

// Devices implements actuator.PlaybackActuator.
func (a *Actuator) Devices(context.Context) ([]actuator.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.record(actuator.OpDevices, "", 0); err != nil {
		return nil, err
	}

	return append([]actuator.Device(nil), a.devices...), nil
}

// Activate implements actuator.PlaybackActuator.
func (a *Actuator) Activate(_ context.Context, deviceID string, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.record(actuator.OpActivate, deviceID, 0); err != nil {
		return err
	}

	index := -1

	for i, d := range a.devices {
		if d.ID == deviceID {
			index = i
		}
	}

	if index < 0 {
		return a.fail(&actuator.Error{Op: actuator.OpActivate, StatusCode: http.StatusNotFound, Err: errUnknownDevice})
	}

	if !a.sticky {
		return nil
	}

	for i := range a.devices {
		a.devices[i].Active = i == index
	}

	return nil
}

// SetVolume implements actuator.PlaybackActuator.
func (a *Actuator) SetVolume(_ context.Context, percent int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.record(actuator.OpSetVolume, "", percent); err != nil {
		return err
	}

	a.volume = max(0, min(100, percent))

	return nil
}

// StartPlayback implements actuator.PlaybackActuator.
func (a *Actuator) StartPlayback(_ context.Context, contentRef string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.record(actuator.OpStartPlayback, contentRef, 0); err != nil {
		return err
	}

	if !a.entitled {
		return a.fail(&actuator.Error{Op: actuator.OpStartPlayback, StatusCode: http.StatusForbidden, Err: errNotEntitled})
	}

	if !a.hasActive() {
		return a.fail(&actuator.Error{Op: actuator.OpStartPlayback, StatusCode: http.StatusNotFound, Err: errNoActiveDevice})
	}

	a.playing = contentRef

	return nil
}

func (a *Actuator) hasActive() bool {
	for _, d := range a.devices {
		if d.Active {
			return true
		}
	}

	return false
}

// record appends the call and returns the injected failure, if any.
// The caller holds the lock.
func (a *Actuator) record(op actuator.Op, arg string, volume int) error {
	var err error

	if f, ok := a.failures[op]; ok {
		err = f.err

		if f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				delete(a.failures, op)
			}
		}
	}

	a.calls = append(a.calls, Call{Op: op, Arg: arg, Volume: volume, At: time.Now(), Err: err})

	return err
}

// fail stores err on the last recorded call and returns it. The caller holds the lock.
func (a *Actuator) fail(err error) error {
	if n := len(a.calls); n > 0 {
		a.calls[n-1].Err = err
	}

	return err
}

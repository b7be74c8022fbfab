package fade

import (
	"context"
	"math"
	"sync"
	"time"
)

// DefaultStepInterval is the time between two volume steps.
const DefaultStepInterval = 5 * time.Second

// VolumeSetter is the single actuator call a ramp needs.
type VolumeSetter interface {
	// SetVolume sets the playback volume in percent.
	SetVolume(ctx context.Context, percent int) error
}

// State is the session state.
type State int

// Session states.
const (
	// StatePending means Begin was not called yet.
	StatePending State = iota
	// StateActive means the ramp is running.
	StateActive
	// StateStopped is terminal: the ramp completed or was stopped.
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	default:
		return "stopped"
	}
}

// Session is one volume ramp toward a target.
type Session struct {
	volume VolumeSetter

	target     int
	totalSteps int
	stepSize   float64

	mu       sync.Mutex
	state    State
	step     int
	current  int
	done     chan struct{}
	doneOnce sync.Once
}

// NewSession prepares a ramp of the given duration, stepping every interval.
// A duration shorter than one interval still takes one step.
func NewSession(volume VolumeSetter, target int, duration, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultStepInterval
	}

	totalSteps := max(1, int(duration/interval))

	return &Session{
		volume:     volume,
		target:     max(0, target),
		totalSteps: totalSteps,
		stepSize:   float64(max(0, target)) / float64(totalSteps),
		done:       make(chan struct{}),
	}
}

// Begin silences the device and activates the session. The session becomes
// active even if the volume call fails; the error is returned for logging.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()

		return nil
	}

	s.state = StateActive
	s.current = 0
	s.mu.Unlock()

	return s.volume.SetVolume(ctx, 0)
}

// Advance takes one step. It reports whether the session is finished after
// the step; stepping an inactive session does nothing.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()

		return true, nil
	}

	s.step++

	next := min(int(math.Round(float64(s.step)*s.stepSize)), s.target)
	if next > s.current {
		s.current = next
	}

	volume := s.current
	finished := s.step >= s.totalSteps

	if finished {
		s.state = StateStopped
	}
	s.mu.Unlock()

	err := s.volume.SetVolume(ctx, volume)

	if finished {
		s.signalDone()
	}

	return finished, err
}

// Stop ends the ramp immediately. It is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.signalDone()
}

// Done is closed once the session stops, by completion or by Stop.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Active reports whether the ramp is still running.
func (s *Session) Active() bool {
	return s.State() == StateActive
}

// Current returns the last volume applied.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Step returns the number of steps taken.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step
}

// TotalSteps returns the number of steps of a complete ramp.
func (s *Session) TotalSteps() int {
	return s.totalSteps
}

// Target returns the final volume.
func (s *Session) Target() int {
	return s.target
}

func (s *Session) signalDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

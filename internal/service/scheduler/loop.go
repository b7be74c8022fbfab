package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/common"
)

const (
	// DefaultPollInterval is the tick of the poll loop.
	DefaultPollInterval = time.Second
	// DefaultJoinTimeout bounds how long Stop waits for the loop and running jobs.
	DefaultJoinTimeout = 2 * time.Second
)

// ErrJoinTimeout is returned by Stop when workers did not exit in time.
var ErrJoinTimeout = errors.New("poll loop did not stop within the join timeout")

// JobFunc is the work run when a job is due.
type JobFunc func(ctx context.Context)

// Handle identifies a registered job. The zero Handle matches no job.
type Handle struct {
	id uint64
}

// Valid reports whether h was returned by a registration.
func (h Handle) Valid() bool {
	return h.id != 0
}

type job struct {
	id   uint64
	name string
	fn   JobFunc

	// daily jobs re-arm at clock every day, one-shot jobs are removed after firing.
	daily bool
	clock alarm.Clock
	next  time.Time
}

// Loop is a job table with a single background poll loop.
type Loop struct {
	// interval is the poll tick.
	interval time.Duration
	// joinTimeout bounds Stop.
	joinTimeout time.Duration
	// now returns the wall clock.
	now func() time.Time

	mu     sync.Mutex
	jobs   []*job
	nextID uint64

	// running is set between Start and Stop.
	running bool
	// closed is set by Shutdown; a closed loop never starts again.
	closed bool
	// cancel stops the loop and cancels running jobs.
	cancel context.CancelFunc
	// loopDone is closed when the poll goroutine exits.
	loopDone chan struct{}
	// inflight counts dispatched jobs.
	inflight sync.WaitGroup
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithJoinTimeout overrides DefaultJoinTimeout.
func WithJoinTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.joinTimeout = d
		}
	}
}

// WithLoopClock replaces time.Now.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLoop creates a stopped loop with an empty job table.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		interval:    DefaultPollInterval,
		joinTimeout: DefaultJoinTimeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Daily registers fn to run every day at clock, starting with the next occurrence.
func (l *Loop) Daily(name string, clock alarm.Clock, fn JobFunc) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, _ := alarm.NextOccurrence(clock, alarm.EveryDay, l.now())

	return l.addLocked(&job{name: name, fn: fn, daily: true, clock: clock, next: next})
}

// Once registers fn to run once at or after at.
func (l *Loop) Once(name string, at time.Time, fn JobFunc) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.addLocked(&job{name: name, fn: fn, next: at})
}

func (l *Loop) addLocked(j *job) Handle {
	l.nextID++
	j.id = l.nextID
	l.jobs = append(l.jobs, j)

	return Handle{id: j.id}
}

// Cancel removes the job. It reports whether the job was still registered.
func (l *Loop) Cancel(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, j := range l.jobs {
		if j.id == h.id {
			l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)

			return true
		}
	}

	return false
}

// NextRun returns when the job is due next.
func (l *Loop) NextRun(h Handle) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, j := range l.jobs {
		if j.id == h.id {
			return j.next, true
		}
	}

	return time.Time{}, false
}

// Pending returns the number of registered jobs.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.jobs)
}

// Running reports whether the poll loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.running
}

// Start launches the poll loop. Starting a running loop is a no-op.
// Jobs keep running after ctx is cancelled; only Stop ends them.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running || l.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(logger.WithName(ctx, "poll-loop")))

	l.running = true
	l.cancel = cancel
	l.loopDone = make(chan struct{})

	go l.run(ctx, l.loopDone)

	logger.InfoKV(ctx, "Poll loop started", "interval", l.interval)
}

// Stop ends the poll loop, cancels running jobs and waits for them up to the
// join timeout. A timeout is logged and returned; the table is kept so the
// loop can be started again.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()

		return nil
	}

	l.running = false
	l.cancel()
	loopDone := l.loopDone
	l.mu.Unlock()

	finished := make(chan struct{})

	go func() {
		<-loopDone
		l.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info(ctx, "Poll loop stopped")

		return nil
	case <-time.After(l.joinTimeout):
		logger.WarnKV(ctx, "Poll loop did not stop in time", "join_timeout", l.joinTimeout)

		return ErrJoinTimeout
	}
}

// Shutdown stops the loop for good: later Start calls are ignored.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	return l.Stop(ctx)
}

// Clear drops every job.
func (l *Loop) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jobs = nil
}

func (l *Loop) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	defer common.Recover(ctx, "poll-loop")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunPending(ctx)
		}
	}
}

// RunPending dispatches every job that is due now, in registration order.
// Each job runs in its own goroutine so a slow firing does not hold the tick.
func (l *Loop) RunPending(ctx context.Context) int {
	due := l.collectDue(l.now())

	for _, j := range due {
		l.inflight.Add(1)

		go func() {
			defer l.inflight.Done()
			defer common.Recover(ctx, j.name)

			j.fn(ctx)
		}()
	}

	return len(due)
}

func (l *Loop) collectDue(now time.Time) []*job {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		due  []*job
		kept = l.jobs[:0]
	)

	for _, j := range l.jobs {
		if now.Before(j.next) {
			kept = append(kept, j)

			continue
		}

		due = append(due, j)

		if j.daily {
			j.next, _ = alarm.NextOccurrence(j.clock, alarm.EveryDay, now)
			kept = append(kept, j)
		}
	}

	clear(l.jobs[len(kept):])
	l.jobs = kept

	return due
}

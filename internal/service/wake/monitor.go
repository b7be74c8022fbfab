package wake

import (
	"context"
	"time"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/common"
)

// State is the health state of a monitored session.
type State int

// Monitored session states.
const (
	// StateMonitoring means the device is being watched.
	StateMonitoring State = iota
	// StateRetrying means playback is being restarted.
	StateRetrying
	// StateExhausted means the retries ran out and the user was notified.
	StateExhausted
	// StateExpired means the monitoring window elapsed.
	StateExpired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateMonitoring:
		return "monitoring"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	default:
		return "expired"
	}
}

// SessionInfo describes a monitored alarm.
type SessionInfo struct {
	// AlarmID identifies the session.
	AlarmID string
	// Snapshot is the playback being kept alive.
	Snapshot alarm.Snapshot
	// Retries is the number of playback restarts so far.
	Retries int
	// StartedAt is when monitoring began.
	StartedAt time.Time
	// Deadline is when monitoring ends.
	Deadline time.Time
	// State is the current health state.
	State State
}

type session struct {
	info SessionInfo
}

// StartMonitoring opens a health-monitoring session for a freshly fired
// alarm, replacing any session of the same id, and starts the shared loop.
func (m *Manager) StartMonitoring(ctx context.Context, alarmID string, snap alarm.Snapshot) {
	ctx = logger.WithName(context.WithoutCancel(ctx), "wake")

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	now := m.now()
	m.sessions[alarmID] = &session{info: SessionInfo{
		AlarmID:   alarmID,
		Snapshot:  snap,
		StartedAt: now,
		Deadline:  now.Add(m.cfg.MonitoringWindow),
		State:     StateMonitoring,
	}}

	logger.InfoKV(ctx, "Monitoring alarm playback",
		"alarm_id", alarmID,
		"window", m.cfg.MonitoringWindow,
		"max_retries", m.cfg.MaxRetryAttempts)

	if m.loopCancel == nil {
		loopCtx, cancel := context.WithCancel(ctx)
		m.loopCancel = cancel
		m.loopDone = make(chan struct{})

		go m.monitorLoop(loopCtx, m.loopDone)
	}
}

// StopMonitoring removes a session, e.g. when the user dismisses the alarm.
func (m *Manager) StopMonitoring(ctx context.Context, alarmID string) bool {
	m.mu.Lock()
	_, ok := m.sessions[alarmID]
	delete(m.sessions, alarmID)
	m.mu.Unlock()

	if ok {
		logger.InfoKV(logger.WithName(ctx, "wake"), "Monitoring stopped", "alarm_id", alarmID)
	}

	return ok
}

// Sessions returns the monitored sessions.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s.info)
	}

	return result
}

// Monitoring reports whether the monitor loop is running.
func (m *Manager) Monitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loopCancel != nil
}

func (m *Manager) monitorLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	defer common.Recover(ctx, "health-monitor")

	ticker := time.NewTicker(m.cfg.HealthCheckInterval)
	defer ticker.Stop()

	logger.Info(ctx, "Health monitor started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkSessions(ctx)

			if m.stopIfIdle() {
				logger.Info(ctx, "Health monitor idle, stopping")

				return
			}
		}
	}
}

// stopIfIdle clears the loop registration when no sessions remain.
func (m *Manager) stopIfIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) > 0 {
		return false
	}

	if m.loopCancel != nil {
		m.loopCancel()
		m.loopCancel = nil
	}

	return true
}

func (m *Manager) checkSessions(ctx context.Context) {
	m.mu.Lock()
	current := make([]*session, 0, len(m.sessions))

	for _, s := range m.sessions {
		current = append(current, s)
	}
	m.mu.Unlock()

	for _, s := range current {
		if ctx.Err() != nil {
			return
		}

		m.checkSession(ctx, s)
	}
}

func (m *Manager) checkSession(ctx context.Context, s *session) {
	ctx = logger.WithKV(ctx, "alarm_id", s.info.AlarmID)

	if m.now().After(s.info.Deadline) {
		m.finish(s, StateExpired)
		logger.Info(ctx, "Monitoring window elapsed")

		return
	}

	active, err := m.actuator.ActiveDevice(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Health check failed, treating device as inactive", "error", err)
	}

	if err == nil && active != nil {
		return
	}

	m.mu.Lock()
	retries := s.info.Retries
	m.mu.Unlock()

	if retries >= m.cfg.MaxRetryAttempts {
		m.finish(s, StateExhausted)

		title := "Alarm playback stopped"
		message := "Playback of " + s.info.Snapshot.Content.Label() +
			" dropped and could not be restarted. Please check your device."

		logger.ErrorKV(ctx, "Playback restarts exhausted", "retries", retries)

		if err := m.notifier.Fallback(ctx, title, message); err != nil {
			logger.WarnKV(ctx, "Failed to deliver fallback notification", "error", err)
		}

		return
	}

	m.retry(ctx, s)
}

// retry restarts playback once. The counter grows even when the restart
// fails, so a broken device costs at most MaxRetryAttempts restarts.
func (m *Manager) retry(ctx context.Context, s *session) {
	m.mu.Lock()
	s.info.State = StateRetrying
	s.info.Retries++
	attempt := s.info.Retries
	snap := s.info.Snapshot
	m.mu.Unlock()

	logger.WarnKV(ctx, "Playback dropped, restarting", "retry", attempt, "max_retries", m.cfg.MaxRetryAttempts)

	m.wakeNow(ctx, "health-retry")

	select {
	case <-ctx.Done():
		return
	case <-time.After(m.cfg.RetryPause):
	}

	m.mu.Lock()
	current, registered := m.sessions[s.info.AlarmID]
	m.mu.Unlock()

	if !registered || current != s {
		logger.Info(ctx, "Session stopped during retry pause, skipping restart")

		return
	}

	fading := snap.FadeIn.Enabled && m.fader != nil

	volume := snap.Volume
	if fading {
		volume = 0
	}

	if err := m.actuator.SetVolume(ctx, volume); err != nil {
		logger.WarnKV(ctx, "Failed to restore volume", "error", err)
	}

	if err := m.actuator.StartPlayback(ctx, snap.Content.Ref); err != nil {
		logger.WarnKV(ctx, "Playback restart failed", "retry", attempt, "error", err)
	} else {
		if fading {
			m.fader.Start(ctx, snap.Volume, snap.FadeIn.Duration())
		}

		logger.InfoKV(ctx, "Playback restarted", "retry", attempt)
	}

	m.mu.Lock()
	if s.info.State == StateRetrying {
		s.info.State = StateMonitoring
	}
	m.mu.Unlock()
}

// finish removes the session if it is still the registered one.
func (m *Manager) finish(s *session, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.info.State = state

	if current, ok := m.sessions[s.info.AlarmID]; ok && current == s {
		delete(m.sessions, s.info.AlarmID)
	}
}

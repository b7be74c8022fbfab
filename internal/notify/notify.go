package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
)

// Notifier receives user-facing alarm events.
type Notifier interface {
	// Success reports a started alarm; snap is enough to snooze it later.
	Success(ctx context.Context, title, message string, snap alarm.Snapshot) error
	// Failure reports a trigger that failed after exhausting its retries.
	Failure(ctx context.Context, title, message string) error
	// Fallback reports that playback dropped and could not be restored.
	Fallback(ctx context.Context, title, message string) error
}

// Log writes every event to the logger.
type Log struct{}

// Success implements Notifier.
func (Log) Success(ctx context.Context, title, message string, snap alarm.Snapshot) error {
	logger.InfoKV(ctx, title, "message", message, "alarm_id", snap.AlarmID)

	return nil
}

// Failure implements Notifier.
func (Log) Failure(ctx context.Context, title, message string) error {
	logger.ErrorKV(ctx, title, "message", message)

	return nil
}

// Fallback implements Notifier.
func (Log) Fallback(ctx context.Context, title, message string) error {
	logger.WarnKV(ctx, title, "message", message)

	return nil
}

// Multi fans events out to several notifiers; every notifier is called even
// when an earlier one fails.
type Multi []Notifier

// Success implements Notifier.
func (m Multi) Success(ctx context.Context, title, message string, snap alarm.Snapshot) error {
	var err error

	for _, n := range m {
		err = multierr.Append(err, n.Success(ctx, title, message, snap))
	}

	return err
}

// Failure implements Notifier.
func (m Multi) Failure(ctx context.Context, title, message string) error {
	var err error

	for _, n := range m {
		err = multierr.Append(err, n.Failure(ctx, title, message))
	}

	return err
}

// Fallback implements Notifier.
func (m Multi) Fallback(ctx context.Context, title, message string) error {
	var err error

	for _, n := range m {
		err = multierr.Append(err, n.Fallback(ctx, title, message))
	}

	return err
}

// Funcs adapts plain callbacks to Notifier. Nil callbacks are skipped.
type Funcs struct {
	// OnSuccess handles successful triggers.
	OnSuccess func(ctx context.Context, title, message string, snap alarm.Snapshot)
	// OnFailure handles failed triggers.
	OnFailure func(ctx context.Context, title, message string)
	// OnFallback handles health-monitor fallbacks.
	OnFallback func(ctx context.Context, title, message string)
}

// Success implements Notifier.
func (f Funcs) Success(ctx context.Context, title, message string, snap alarm.Snapshot) error {
	if f.OnSuccess != nil {
		f.OnSuccess(ctx, title, message, snap)
	}

	return nil
}

// Failure implements Notifier.
func (f Funcs) Failure(ctx context.Context, title, message string) error {
	if f.OnFailure != nil {
		f.OnFailure(ctx, title, message)
	}

	return nil
}

// Fallback implements Notifier.
func (f Funcs) Fallback(ctx context.Context, title, message string) error {
	if f.OnFallback != nil {
		f.OnFallback(ctx, title, message)
	}

	return nil
}

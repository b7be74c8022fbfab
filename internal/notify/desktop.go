package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// SendFunc shows one desktop notification.
type SendFunc func(title, message string) error

// Desktop shows events as OS notifications. Failures and fallbacks use an
// alert so the user notices them even with muted notifications.
type Desktop struct {
	notify SendFunc
	alert  SendFunc
}

// NewDesktop creates a notifier backed by beeep.
func NewDesktop() *Desktop {
	return &Desktop{
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

// NewDesktopWith creates a notifier with custom senders, mostly for tests.
func NewDesktopWith(notify, alert SendFunc) *Desktop {
	return &Desktop{notify: notify, alert: alert}
}

// Success implements Notifier.
func (d *Desktop) Success(_ context.Context, title, message string, _ alarm.Snapshot) error {
	if err := d.notify(title, message); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}

	return nil
}

// Failure implements Notifier.
func (d *Desktop) Failure(_ context.Context, title, message string) error {
	if err := d.alert(title, message); err != nil {
		return fmt.Errorf("desktop alert: %w", err)
	}

	return nil
}

// Fallback implements Notifier.
func (d *Desktop) Fallback(_ context.Context, title, message string) error {
	if err := d.alert(title, message); err != nil {
		return fmt.Errorf("desktop alert: %w", err)
	}

	return nil
}

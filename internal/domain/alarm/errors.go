package alarm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFormat is returned when a trigger time is not a 24-hour HH:MM string.
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	// ErrInvalidVolume is returned when a target volume is outside 0..100.
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
	// ErrInvalidSnooze is returned when a snooze duration is outside 1..MaxSnoozeMinutes.
	ErrInvalidSnooze = errors.New("snooze minutes must be between 1 and 1440")
	// ErrContentRequired is returned when an alarm has no content reference.
	ErrContentRequired = errors.New("content reference must be provided")

	// ErrNotFound is returned when no alarm matches the given id.
	ErrNotFound = errors.New("alarm not found")
)

// ValidateSnooze checks a snooze duration in minutes.
func ValidateSnooze(minutes int) error {
	if minutes <= 0 || minutes > MaxSnoozeMinutes {
		return fmt.Errorf("%d: %w", minutes, ErrInvalidSnooze)
	}

	return nil
}

// IsInvalidInput reports whether err belongs to the invalid-input class,
// which is surfaced synchronously to the caller instead of being retried.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidTimeFormat) ||
		errors.Is(err, ErrInvalidVolume) ||
		errors.Is(err, ErrInvalidSnooze) ||
		errors.Is(err, ErrContentRequired)
}

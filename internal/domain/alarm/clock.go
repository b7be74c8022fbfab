package alarm

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// clockPattern accepts 00:00 through 23:59 with mandatory leading zeros.
var clockPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Clock is a time of day with minute precision.
type Clock struct {
	// Hour is 0..23.
	Hour int
	// Minute is 0..59.
	Minute int
}

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	if !clockPattern.MatchString(s) {
		return Clock{}, fmt.Errorf("%q: %w", s, ErrInvalidTimeFormat)
	}

	// The pattern guarantees both parts are two digits.
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[3:])

	return Clock{Hour: hour, Minute: minute}, nil
}

// String renders the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this clock on the calendar day of t, in t's location.
func (c Clock) On(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, t.Location())
}

package alarm

import (
	"fmt"
	"time"
)

// daysInWeek bounds the search for the next active day.
const daysInWeek = 7

// NextOccurrence returns the earliest instant strictly after `after` at which
// the clock falls on an active day. Instants are built in after's location.
func NextOccurrence(at Clock, days Weekdays, after time.Time) (time.Time, bool) {
	for offset := 0; offset <= daysInWeek; offset++ {
		candidate := at.On(after.AddDate(0, 0, offset))
		if candidate.After(after) && days.Contains(candidate.Weekday()) {
			return candidate, true
		}
	}

	return time.Time{}, false
}

// NextTrigger returns the due instant of d nearest after now.
func NextTrigger(d Definition, now time.Time) (time.Time, bool) {
	return NextOccurrence(d.Time, d.Weekdays, now)
}

// Occurrences lists every due instant of d in (from, from+horizon].
func Occurrences(d Definition, from time.Time, horizon time.Duration) []time.Time {
	if horizon <= 0 {
		return nil
	}

	var (
		end    = from.Add(horizon)
		result []time.Time
	)

	for offset := 0; ; offset++ {
		candidate := d.Time.On(from.AddDate(0, 0, offset))
		if candidate.After(end) {
			return result
		}

		if candidate.After(from) && d.Weekdays.Contains(candidate.Weekday()) {
			result = append(result, candidate)
		}
	}
}

// FormatUntil renders the wait until the next trigger for humans:
// "soon" under a minute, then "in 45m", "in 2h 15m", "in 1d 3h".
func FormatUntil(d time.Duration) string {
	if d < time.Minute {
		return "soon"
	}

	var (
		minutes = int(d / time.Minute)
		hours   = minutes / 60
		days    = hours / 24
	)

	switch {
	case days > 0:
		return fmt.Sprintf("in %dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("in %dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("in %dm", minutes)
	}
}

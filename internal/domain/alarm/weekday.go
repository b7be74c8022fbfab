package alarm

import (
	"strings"
	"time"
)

// Weekdays is a set of days of the week, one bit per time.Weekday.
// The zero value means every day.
type Weekdays uint8

// EveryDay is the unrestricted weekday set.
const EveryDay Weekdays = 0

const (
	// WorkWeek is Monday through Friday.
	WorkWeek = Weekdays(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)
	// Weekend is Saturday and Sunday.
	Weekend = Weekdays(1<<time.Saturday | 1<<time.Sunday)

	allDays = WorkWeek | Weekend
)

// displayOrder lists days Monday first, which is how alarms are shown to users.
//
//nolint:gochecknoglobals // Read-only lookup table.
var displayOrder = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeekdaysOf builds a set from individual days. An empty or full set collapses to EveryDay.
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << d
	}

	return w.normalize()
}

func (w Weekdays) normalize() Weekdays {
	if w&allDays == allDays {
		return EveryDay
	}

	return w & allDays
}

// IsEveryDay reports whether the set places no restriction.
func (w Weekdays) IsEveryDay() bool {
	return w.normalize() == EveryDay
}

// Contains reports whether d is an active day.
func (w Weekdays) Contains(d time.Weekday) bool {
	if w.IsEveryDay() {
		return true
	}

	return w&(1<<d) != 0
}

// Days returns the active days Monday first, or nil for EveryDay.
func (w Weekdays) Days() []time.Weekday {
	if w.IsEveryDay() {
		return nil
	}

	days := make([]time.Weekday, 0, len(displayOrder))
	for _, d := range displayOrder {
		if w&(1<<d) != 0 {
			days = append(days, d)
		}
	}

	return days
}

// Names returns the English day names Monday first, or nil for EveryDay.
func (w Weekdays) Names() []string {
	days := w.Days()
	if days == nil {
		return nil
	}

	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}

	return names
}

// String renders the set for logs and listings.
func (w Weekdays) String() string {
	switch w.normalize() {
	case EveryDay:
		return "every day"
	case WorkWeek:
		return "weekdays"
	case Weekend:
		return "weekends"
	default:
		return strings.Join(w.Names(), ", ")
	}
}

// ParseWeekdays normalizes user tokens into a set. Accepted tokens are full day
// names, three-letter abbreviations, and the sentinels "weekdays", "weekends",
// "daily" and "everyday", all case-insensitive. Unrecognized tokens are returned
// so the caller can report them; they do not contribute to the set. When nothing
// usable remains the result is EveryDay.
func ParseWeekdays(tokens []string) (Weekdays, []string) {
	var (
		set     Weekdays
		unknown []string
	)

	for _, raw := range tokens {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}

		switch token {
		case "weekdays", "workdays":
			set |= WorkWeek

			continue
		case "weekends", "weekend":
			set |= Weekend

			continue
		case "daily", "everyday", "every day", "all":
			set |= allDays

			continue
		}

		day, ok := lookupDay(token)
		if !ok {
			unknown = append(unknown, raw)

			continue
		}

		set |= 1 << day
	}

	return set.normalize(), unknown
}

func lookupDay(token string) (time.Weekday, bool) {
	for _, d := range displayOrder {
		name := strings.ToLower(d.String())
		if token == name || token == name[:3] {
			return d, true
		}
	}

	return 0, false
}

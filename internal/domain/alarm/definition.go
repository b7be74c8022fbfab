package alarm

import (
	"fmt"
	"time"
)

const (
	// MinFadeInMinutes is the shortest allowed fade-in ramp.
	MinFadeInMinutes = 5
	// MaxFadeInMinutes is the longest allowed fade-in ramp.
	MaxFadeInMinutes = 30
	// DefaultFadeInMinutes is used when fade-in is enabled without a duration.
	DefaultFadeInMinutes = 10

	// MaxVolume is the loudest actuator volume.
	MaxVolume = 100

	// MaxSnoozeMinutes is the longest snooze, one day.
	MaxSnoozeMinutes = 24 * 60
)

// Content references the media to play.
type Content struct {
	// Ref is the opaque playlist identifier understood by the actuator.
	Ref string
	// Name is the display name used in notifications.
	Name string
}

// Label returns the display name, falling back to the reference.
func (c Content) Label() string {
	if c.Name != "" {
		return c.Name
	}

	return c.Ref
}

// FadeIn configures the volume ramp applied after playback starts.
type FadeIn struct {
	// Enabled turns the ramp on.
	Enabled bool
	// Minutes is the ramp duration, clamped to [MinFadeInMinutes, MaxFadeInMinutes] when enabled.
	Minutes int
}

// Duration returns the ramp duration.
func (f FadeIn) Duration() time.Duration {
	return time.Duration(f.Minutes) * time.Minute
}

// normalize clamps the duration of an enabled ramp.
func (f FadeIn) normalize() FadeIn {
	if !f.Enabled {
		return f
	}

	switch {
	case f.Minutes == 0:
		f.Minutes = DefaultFadeInMinutes
	case f.Minutes < MinFadeInMinutes:
		f.Minutes = MinFadeInMinutes
	case f.Minutes > MaxFadeInMinutes:
		f.Minutes = MaxFadeInMinutes
	}

	return f
}

// Request carries raw scheduling input from a host before normalization.
type Request struct {
	// ID is an optional explicit identity; derived from time and content when empty.
	ID string
	// Time is the trigger time as "HH:MM".
	Time string
	// Content is the media to play.
	Content Content
	// Volume is the target volume 0..100.
	Volume int
	// FadeIn is the optional volume ramp.
	FadeIn FadeIn
	// Weekdays holds day tokens; empty means every day.
	Weekdays []string
}

// Definition is a normalized recurring alarm.
type Definition struct {
	// ID is the stable identity used by the wake manager and for removal.
	ID string
	// Time is the trigger time of day.
	Time Clock
	// Content is the media to play.
	Content Content
	// Volume is the target volume 0..100.
	Volume int
	// FadeIn is the volume ramp.
	FadeIn FadeIn
	// Weekdays restricts the days the alarm fires on.
	Weekdays Weekdays
}

// NewDefinition validates and normalizes a request. The second return value
// lists weekday tokens that were not recognized and therefore ignored.
func NewDefinition(req Request) (Definition, []string, error) {
	at, err := ParseClock(req.Time)
	if err != nil {
		return Definition{}, nil, err
	}

	if req.Content.Ref == "" {
		return Definition{}, nil, ErrContentRequired
	}

	if req.Volume < 0 || req.Volume > MaxVolume {
		return Definition{}, nil, fmt.Errorf("%d: %w", req.Volume, ErrInvalidVolume)
	}

	days, unknown := ParseWeekdays(req.Weekdays)

	id := req.ID
	if id == "" {
		id = CompositeID(at, req.Content.Ref)
	}

	return Definition{
		ID:       id,
		Time:     at,
		Content:  req.Content,
		Volume:   req.Volume,
		FadeIn:   req.FadeIn.normalize(),
		Weekdays: days,
	}, unknown, nil
}

// CompositeID derives an identity from the trigger time and the content key.
func CompositeID(at Clock, contentRef string) string {
	return at.String() + "@" + contentRef
}

// Request converts a definition back into the raw form, e.g. for persistence.
func (d Definition) Request() Request {
	return Request{
		ID:       d.ID,
		Time:     d.Time.String(),
		Content:  d.Content,
		Volume:   d.Volume,
		FadeIn:   d.FadeIn,
		Weekdays: d.Weekdays.Names(),
	}
}

// Snapshot copies what is needed to replay the alarm later.
func (d Definition) Snapshot() Snapshot {
	return Snapshot{
		AlarmID: d.ID,
		Content: d.Content,
		Volume:  d.Volume,
		FadeIn:  d.FadeIn,
	}
}

// Snapshot is an immutable copy of an alarm's playback settings, taken when it
// fires. It outlives the definition it was taken from.
type Snapshot struct {
	// AlarmID identifies the originating alarm.
	AlarmID string
	// Content is the media to play.
	Content Content
	// Volume is the target volume.
	Volume int
	// FadeIn is the volume ramp.
	FadeIn FadeIn
}

// SnoozeEntry is a pending one-shot replay of a snapshot.
type SnoozeEntry struct {
	// ID uniquely identifies the entry.
	ID string
	// FireAt is the absolute instant the replay is due.
	FireAt time.Time
	// Snapshot is the playback to replay.
	Snapshot Snapshot
}

// Occurrence is one future firing of an alarm.
type Occurrence struct {
	// At is the due instant.
	At time.Time
	// Alarm is the definition that fires.
	Alarm Definition
}

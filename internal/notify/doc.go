// Package notify delivers alarm outcomes to the user.
//
// The engine reports three kinds of events: a successful trigger (with the
// snapshot needed to snooze it), a trigger that failed after all retries, and
// a health-monitor fallback when playback could not be kept alive. Hosts pick
// how to render them by composing Notifier implementations.
package notify

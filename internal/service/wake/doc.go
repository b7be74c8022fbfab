// Package wake keeps playback devices ready around alarms.
//
// Pre-wake timers activate a device shortly before each alarm is due and
// re-arm themselves for the next occurrence. After an alarm fires, a health
// monitor checks the device on a shared loop and restarts playback when it
// drops out, up to a bounded number of retries, before falling back to a
// user notification.
package wake

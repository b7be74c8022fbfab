// Package alarm contains the core domain types of the wake-up engine.
//
// It defines the trigger time of day (Clock), the active weekday set
// (Weekdays), alarm definitions and the snapshots taken from them when an
// alarm fires, snooze entries, and the pure due-instant math shared by the
// scheduler and the device wake manager. Nothing in here blocks or logs.
package alarm

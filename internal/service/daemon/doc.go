// Package daemon runs the alarm engine as a long-lived process.
//
// Run loads settings, refuses to start next to another daemon, restores the
// saved alarms, watches the state file for external edits and serves the
// AlarmService over gRPC until the context is canceled.
package daemon

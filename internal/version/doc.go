// Package version exposes build metadata for the alarm binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags, e.g. -X github.com/oshokin/alarmify/internal/version.Commit=abc123.
package version

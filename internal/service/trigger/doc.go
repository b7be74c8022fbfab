// Package trigger fires one alarm: wake a device, set the volume or start a
// fade-in, start playback with bounded retries, then report the outcome and
// hand the alarm over to health monitoring.
package trigger

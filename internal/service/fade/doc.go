// Package fade ramps playback volume from silence to a target in fixed ticks.
//
// A Session is a two-state machine (active, stopped) advanced by a ticker.
// A Controller owns at most one running session: starting a new ramp stops
// the previous one first.
package fade

// Package ctl implements the alarm-ctl subcommands.
//
// Each command issues one call to the alarm daemon and renders the answer for
// a terminal. Rendering is plain text when the output is not a terminal.
package ctl

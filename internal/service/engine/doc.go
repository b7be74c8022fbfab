// Package engine wires the alarm reliability engine together and exposes the
// surface hosts use: alarm and snooze CRUD, previews, dismissal and shutdown.
package engine

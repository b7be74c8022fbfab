// Package scheduler owns the alarm and snooze collections and the single poll
// loop that fires them.
//
// A Loop is an explicit job table ticking at a short interval. Due jobs are
// collected under the table lock and dispatched outside of it, so a firing
// may freely call back into the schedulers (for example to snooze).
package scheduler

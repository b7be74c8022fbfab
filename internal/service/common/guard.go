//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"runtime/debug"

	"github.com/oshokin/alarmify/internal/logger"
)

// Recover logs a panic of a background worker together with its stack and
// lets the process keep running. It must be deferred directly:
//
//	defer common.Recover(ctx, "scheduler")
func Recover(ctx context.Context, worker string) {
	if r := recover(); r != nil {
		logger.ErrorKV(ctx, "Worker panicked, invariant violated",
			"worker", worker,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

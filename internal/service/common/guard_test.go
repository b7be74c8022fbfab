//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/alarmify/internal/logger"
)

// TestRecover swallows and logs a worker panic.
func TestRecover(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	require.NotPanics(t, func() {
		defer Recover(ctx, "test-worker")

		panic("boom")
	})

	entries := logs.FilterMessage("Worker panicked, invariant violated").All()
	require.Len(t, entries, 1)
	require.Equal(t, "test-worker", entries[0].ContextMap()["worker"])
}

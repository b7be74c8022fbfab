package alarms

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWatcher_ReportsExternalWrites debounces bursts and ignores other files.
func TestWatcher_ReportsExternalWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	var calls atomic.Int32

	w, err := Watch(context.Background(), path, 50*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, w.Close()) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))

	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := calls.Load()

	require.NoError(t, NewFileRepository(path).Save(context.Background(), definitions(t)))
	require.Eventually(t, func() bool { return calls.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

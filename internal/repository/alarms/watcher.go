package alarms

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/alarmify/internal/logger"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls back when the state file changes on disk.
type Watcher struct {
	// path is the watched file.
	path string
	// debounce is the quiet period before the callback runs.
	debounce time.Duration
	// onChange is the reload callback.
	onChange func(ctx context.Context)

	fs   *fsnotify.Watcher
	stop chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path. The parent directory is watched so atomic
// replacements (write to temp, rename) are seen as well.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(ctx context.Context)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	path = filepath.Clean(path)

	if err = fsWatcher.Add(filepath.Dir(path)); err != nil {
		_ = fsWatcher.Close()

		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
		fs:       fsWatcher,
		stop:     make(chan struct{}),
	}

	ctx = logger.WithName(ctx, "state-watcher")

	w.wg.Add(1)

	go w.loop(ctx)

	logger.InfoKV(ctx, "Watching state file", "path", path)

	return w, nil
}

// Close stops watching and waits for the event loop to exit. A pending
// reload is dropped.
func (w *Watcher) Close() error {
	select {
	case <-w.stop:
		return nil
	default:
	}

	close(w.stop)

	err := w.fs.Close()

	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			w.handle(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}

			logger.WarnKV(ctx, "State watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stop:
			return
		default:
		}

		logger.DebugKV(ctx, "State file changed", "path", w.path)
		w.onChange(ctx)
	})
}

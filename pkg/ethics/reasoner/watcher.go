package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a pattern file for changes and reloads the reasoner when
// it is modified. It debounces rapid events to prevent reload storms while
// an editor is still writing.
type Watcher struct {
	watcher  *fsnotify.Watcher
	source   *FileSource
	reasoner *KeywordReasoner
	logger   *slog.Logger
	debounce *Debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig contains configuration for the pattern watcher.
type WatcherConfig struct {
	// DebounceInterval is the quiet period before a reload fires after a
	// change is detected. Default: 100ms.
	DebounceInterval time.Duration
}

// NewWatcher creates a watcher that reloads the given reasoner from the
// given source whenever the pattern file changes.
func NewWatcher(source *FileSource, r *KeywordReasoner, cfg *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil {
		cfg = &WatcherConfig{}
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		source:   source,
		reasoner: r,
		logger:   logger.With("component", "ethics.patterns.watcher"),
		debounce: NewDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching the pattern file. It blocks until the context is
// cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	// Watch the directory so renames and atomic writes are observed.
	dir := filepath.Dir(w.source.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	w.logger.Info("pattern watcher started", "path", w.source.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pattern watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("pattern watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("pattern file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.Trigger(func() {
				w.reload()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("pattern watcher error", "error", err)
			// Keep watching despite errors.
		}
	}
}

// Stop stops the watcher and cancels any pending reloads.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// reload loads the pattern set and applies it to the reasoner. A broken
// pattern file keeps the previous set active.
func (w *Watcher) reload() {
	patterns, err := w.source.Load()
	if err != nil {
		w.logger.Error("pattern reload failed, keeping previous set", "error", err)
		return
	}
	if err := w.reasoner.Reload(patterns); err != nil {
		w.logger.Error("pattern reload rejected, keeping previous set", "error", err)
	}
}

// shouldProcessEvent filters events down to writes touching the pattern file.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.source.path)
}

// Debouncer collects rapid events and triggers the callback only after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger schedules the callback after the debounce interval, replacing any
// previously pending callback.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// Stop stops the debouncer and cancels any pending callback.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}

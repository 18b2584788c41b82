package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the reloaded settings, or the error that prevented
// loading them.
type ReloadFunc func(cfg *Config, err error)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for watch errors.
func WithWatchLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher reloads a config file when it changes.
//
// The parent directory is watched rather than the file, so editors that
// replace the file by rename are seen as well.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewWatcher starts watching path. Call Run to deliver reloads.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		debounce: 100 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers reloads until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn("config watch error", "path", w.path, "error", err)
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "path", w.path, "error", err)
	} else {
		w.logger.Info("config reloaded", "path", w.path)
	}
	if w.onReload != nil {
		w.onReload(cfg, err)
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.fsw.Close()
}

package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ReloadFunc receives the hot-reloadable changes between the previous and the
// freshly loaded config. It is only invoked when the diff is non-empty.
type ReloadFunc func(diff ConfigDiff, next *Config)

// Watcher polls a config file and reports hot-reloadable changes through a
// [ReloadFunc]. Polling keeps the watcher working on every filesystem,
// including bind mounts where inotify events are unreliable.
//
// Edits that only touch restart-bound settings (providers, storage, listen
// address) update [Watcher.Current] silently; [Diff] decides what counts as
// hot-reloadable.
type Watcher struct {
	path     string
	interval time.Duration
	onReload ReloadFunc

	mu      sync.Mutex
	current *Config
	modTime time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and starts polling it in a background
// goroutine. The initial load must succeed; later invalid edits are logged
// and ignored, keeping the last valid config in effect.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, modTime, err := w.load()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.modTime = modTime

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the file watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reloads the file when its mtime moved and hands a non-empty diff to
// the reload callback.
func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config: watcher cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.modTime)
	w.mu.Unlock()
	if unchanged {
		return
	}

	next, modTime, err := w.load()
	if err != nil {
		// Keep the previous config and the old mtime so the next tick retries.
		slog.Warn("config: ignoring invalid edit", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.modTime = modTime
	w.mu.Unlock()

	diff := Diff(prev, next)
	if !diff.Any() {
		// Touched, or only restart-bound settings changed.
		return
	}

	slog.Info("config: hot reload applied", "path", w.path)
	if w.onReload != nil {
		w.onReload(diff, next)
	}
}

// load reads and validates the config file, returning it with the file's
// modification time.
func (w *Watcher) load() (*Config, time.Time, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, time.Time{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, time.Time{}, err
	}
	return cfg, info.ModTime(), nil
}

package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 500 * time.Millisecond

// Watcher watches the config file and swaps in a fresh snapshot on change.
// A snapshot that fails to load or validate, or that changes settings only
// read at startup (see CheckReload), is discarded and the previous one stays
// active.
type Watcher struct {
	path     string
	lookup   LookupFunc
	onReload func(*Config, error)
	fsw      *fsnotify.Watcher
	current  atomic.Pointer[Config]
	reloads  atomic.Uint32
	done     chan struct{}
	once     sync.Once
}

// NewWatcher loads path and starts watching it.
func NewWatcher(path string, lookup LookupFunc, onReload func(*Config, error)) (*Watcher, error) {
	cfg, err := Load(path, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file by rename are seen.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}

	if onReload == nil {
		onReload = func(*Config, error) {}
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		lookup:   lookup,
		onReload: onReload,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	w.current.Store(cfg)

	go w.watch()

	return w, nil
}

func (w *Watcher) watch() {
	var timer *time.Timer

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	count := w.reloads.Add(1)
	slog.Info("Reloading config file", "path", w.path, "count", count)

	cfg, err := Load(w.path, w.lookup)
	if err == nil {
		err = CheckReload(w.current.Load(), cfg)
	}
	if err != nil {
		slog.Error("Failed to reload config, keeping previous snapshot", "error", err)
		w.onReload(nil, err)
		return
	}

	w.current.Store(cfg)

	slog.Info("Config reloaded successfully", "count", count)
	w.onReload(cfg, nil)
}

// Snapshot returns the current config snapshot.
func (w *Watcher) Snapshot() *Config {
	return w.current.Load()
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

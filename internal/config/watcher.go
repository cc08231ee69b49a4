package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tether/pkg/logger"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the configuration when the config file changes on
// disk. Editors replace files rather than writing in place, so the
// parent directory is watched and events are debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload func()
	stopCh   chan struct{}
	debounce *time.Timer
	mu       sync.Mutex
}

// NewWatcher creates a watcher for the given config file. onReload, if
// non-nil, runs after each successful reload.
func NewWatcher(path string, onReload func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		path:     path,
		onReload: onReload,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for config file changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("Config watcher error")
		}
	}
}

// scheduleReload arms the debounce timer, replacing any pending one.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) reload() {
	if err := Reload(); err != nil {
		logger.Warn().Err(err).Str("path", w.path).Msg("Config reload failed")
		return
	}
	logger.Info().Str("path", w.path).Msg("Configuration reloaded")
	if w.onReload != nil {
		w.onReload()
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	w.watcher.Close()
}

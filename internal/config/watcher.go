package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounceWindow coalesces the bursts of write events editors and
// provisioning tools produce for a single save.
const debounceWindow = 500 * time.Millisecond

// Watcher monitors the .env file and reloads configuration when it changes.
// Registered callbacks receive the freshly loaded Config; they are expected
// to push the values into the running monitors.
type Watcher struct {
	envPath  string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}

	mu        sync.Mutex
	callbacks []func(*Config)
	lastFire  time.Time
}

// NewWatcher creates a watcher for the given .env path. The parent
// directory is watched so the file can be replaced atomically.
func NewWatcher(envPath string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		envPath:  filepath.Clean(envPath),
		watcher:  fsWatcher,
		stopChan: make(chan struct{}),
	}
	return w, nil
}

// OnReload registers a callback invoked after each successful reload.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins watching. Non-blocking.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.envPath)); err != nil {
		return err
	}

	go w.loop()
	log.Info().Str("path", w.envPath).Msg("Watching env file for configuration changes")
	return nil
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		log.Warn().Err(err).Msg("Closing fsnotify watcher failed")
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.envPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.maybeReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Env file watcher error")
		}
	}
}

func (w *Watcher) maybeReload() {
	w.mu.Lock()
	if time.Since(w.lastFire) < debounceWindow {
		w.mu.Unlock()
		return
	}
	w.lastFire = time.Now()
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	cfg, err := Load(w.envPath)
	if err != nil {
		log.Error().Err(err).Str("path", w.envPath).Msg("Env file changed but reload failed; keeping previous configuration")
		return
	}

	log.Info().Str("path", w.envPath).Msg("Env file changed; applying new configuration")
	for _, fn := range callbacks {
		fn(cfg)
	}
}

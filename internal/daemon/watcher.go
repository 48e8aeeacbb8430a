// Package daemon holds hivebard's supporting plumbing.
package daemon

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/thecrazygm/hivebar/internal/config"
)

// ConfigWatcher reloads the config file when it changes. An invalid new
// config is reported and ignored; the daemon keeps running on the old
// one.
type ConfigWatcher struct {
	log      *slog.Logger
	watcher  *fsnotify.Watcher
	filePath string
	onChange func(*config.Config)
	done     chan struct{}

	mu      sync.Mutex
	running bool
}

// NewConfigWatcher creates a watcher for the given config path.
// onChange runs on the watcher goroutine with each valid new config.
func NewConfigWatcher(log *slog.Logger, filePath string, onChange func(*config.Config)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ConfigWatcher{
		log:      log.With("component", "config-watcher"),
		watcher:  watcher,
		filePath: filePath,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The containing directory is watched because
// editors replace files instead of writing in place.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.filePath)); err != nil {
		return err
	}

	go w.watch()
	return nil
}

func (w *ConfigWatcher) watch() {
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.filePath)
	if err != nil {
		w.log.Warn("ignoring invalid config change", "path", w.filePath, "error", err)
		return
	}
	w.log.Info("config reloaded", "path", w.filePath)
	w.onChange(cfg)
}

// Stop stops the watcher.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}

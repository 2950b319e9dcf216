package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/fovea/injector/core"
)

// Watcher reloads the configuration file when it changes on disk, so the
// injection can be toggled while the host keeps running.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	done    chan struct{}
}

func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory, not the file. Editors replace the file on save
	// and a watch on the old inode would go silent after the first write.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Updates delivers a freshly parsed configuration after each on-disk change.
// Unparseable intermediate states are logged and skipped.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("ignoring config change: %s", err.Error())
				continue
			}
			// Keep only the newest update when the consumer lags.
			select {
			case <-w.updates:
			default:
			}
			w.updates <- cfg
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err.Error())
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

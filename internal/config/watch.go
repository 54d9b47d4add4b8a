package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads config.toml whenever it changes on disk, so daemon
// operators can edit appearance/keybinding settings without restarting
// ccmuxd.
type Watcher struct {
	path   string
	log    *slog.Logger
	onLoad func(Config)
	fsw    *fsnotify.Watcher
	done   chan struct{}
}

// Watch starts watching path's parent directory (fsnotify needs an
// existing directory to watch, not a possibly-not-yet-created file) and
// calls onLoad with a freshly-reloaded Config every time path changes.
func Watch(path string, log *slog.Logger, onLoad func(Config)) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := dirOf(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, log: log, onLoad: onLoad, fsw: fsw, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path, w.log)
			if err != nil {
				w.log.Warn("config: reload failed, keeping previous config", "error", err)
				continue
			}
			w.log.Info("config: reloaded", "path", w.path)
			w.onLoad(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config: watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func dirOf(path string) string {
	i := len(path)
	for i > 0 && path[i-1] != '/' {
		i--
	}
	if i == 0 {
		return "."
	}
	return path[:i]
}

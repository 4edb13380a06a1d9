// Package reload watches the config file and re-reads it on change.
package reload

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wrenware/content-archiver/internal/config"
	"github.com/wrenware/content-archiver/internal/logging"
)

// Watcher re-loads the config file whenever it is rewritten on disk and
// hands the result to apply. It watches the parent directory because most
// editors and config-management tools replace the file by rename.
type Watcher struct {
	path  string
	apply func(*config.Config)
	log   logging.Logger
}

func New(path string, log logging.Logger, apply func(*config.Config)) *Watcher {
	return &Watcher{path: path, apply: apply, log: log}
}

func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watching config directory: %w", err)
	}

	go w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error("config watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.log.Error("config reload failed", "error", err)
		return
	}
	w.log.Info("config reloaded", "path", w.path)
	w.apply(cfg)
}

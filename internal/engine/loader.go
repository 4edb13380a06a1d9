package engine

import (
	"archive/zip"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/logging"
)

// Loader replays existing archives through the handlers at startup.
type Loader struct {
	dir      string
	handlers []Handler
	log      logging.Logger
}

func NewLoader(dir string, handlers []Handler, log logging.Logger) *Loader {
	return &Loader{dir: dir, handlers: handlers, log: log}
}

// Load feeds every archive in the backup directory, across all rules, to
// every handler from oldest to newest. An archive that cannot be opened is
// logged and skipped; the rest still load. An empty or missing directory is
// a no-op.
func (l *Loader) Load() {
	paths, err := archive.Glob(l.dir, "")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Error("listing backup directory failed", "dir", l.dir, "error", err)
		}
		return
	}

	for _, path := range paths {
		zr, err := zip.OpenReader(path)
		if err != nil {
			l.log.Error("could not open backup archive", "file", filepath.Base(path), "error", err)
			continue
		}

		for _, h := range l.handlers {
			if err := h.LoadBackup(&zr.Reader); err != nil {
				l.log.Error("load handler failed", "file", filepath.Base(path), "error", err)
			}
		}

		if err := zr.Close(); err != nil {
			l.log.Error("closing backup archive failed", "file", filepath.Base(path), "error", err)
		}

		l.log.Debug("loaded backup", "file", filepath.Base(path))
	}
}

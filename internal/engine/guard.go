package engine

import (
	"path/filepath"
	"time"

	"github.com/wrenware/content-archiver/internal/fs"
	"github.com/wrenware/content-archiver/internal/logging"
)

// LockFileName is the crash marker: it exists while a backup cycle runs.
// It is advisory only, for external tooling to notice an interrupted cycle.
// It is not a mutex; nothing stops a second process from persisting into
// the same directory.
const LockFileName = "running.lock"

// Guard wraps one backup cycle in the crash marker.
type Guard struct {
	dir  string
	exec *Executor
	fsys fs.FS
	log  logging.Logger
}

func NewGuard(dir string, exec *Executor, fsys fs.FS, log logging.Logger) *Guard {
	return &Guard{dir: dir, exec: exec, fsys: fsys, log: log}
}

// Persist runs one full backup cycle across all rules. If the crash marker
// cannot be created the cycle is skipped entirely. The marker is removed
// once the executor returns, whether or not every rule succeeded.
func (g *Guard) Persist() {
	if err := g.fsys.MkdirAll(g.dir); err != nil {
		g.log.Error("creating backup directory failed", "dir", g.dir, "error", err)
		return
	}

	lock := filepath.Join(g.dir, LockFileName)
	if err := g.fsys.Touch(lock); err != nil {
		g.log.Error("creating crash marker failed, skipping backup cycle", "path", lock, "error", err)
		return
	}

	g.exec.Backup(time.Now())

	if err := g.fsys.Remove(lock); err != nil {
		g.log.Error("removing crash marker failed", "path", lock, "error", err)
	}
}

package engine

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/logging"
	"github.com/wrenware/content-archiver/internal/retention"
	"github.com/wrenware/content-archiver/internal/rules"
)

// Executor creates archives for every rule whose interval has elapsed.
type Executor struct {
	dir       string
	store     *rules.Store
	handlers  []Handler
	retention *retention.Enforcer
	log       logging.Logger
}

func NewExecutor(dir string, store *rules.Store, handlers []Handler, ret *retention.Enforcer, log logging.Logger) *Executor {
	return &Executor{
		dir:       dir,
		store:     store,
		handlers:  handlers,
		retention: ret,
		log:       log,
	}
}

// Backup checks every rule against now and archives the due ones. Rules are
// independent: a failure on one never blocks the next. A rule fires when
// strictly more than its interval has passed since its last backup; firing
// advances the rule's clock even when writing the archive failed, so a
// broken rule does not retry on every cycle.
func (e *Executor) Backup(now time.Time) {
	nowSecs := now.Unix()

	for _, rule := range e.store.Rules() {
		elapsed := nowSecs - rule.LastBackupSeconds
		if elapsed <= rule.IntervalSeconds {
			e.log.Debug("backup not due",
				"rule", rule.Name, "elapsed", elapsed, "interval", rule.IntervalSeconds)
			continue
		}

		name := archive.FileName(rule.Prefix, now)
		if err := e.writeArchive(filepath.Join(e.dir, name)); err != nil {
			e.log.Error("creating backup failed", "rule", rule.Name, "file", name, "error", err)
		} else {
			e.log.Info("created backup", "rule", rule.Name, "file", name)
		}

		e.store.Advance(rule, nowSecs)
		e.retention.Apply(e.dir, rule)
	}
}

// writeArchive opens a new archive at path and fans out CreateBackup. If the
// archive cannot be opened no handler runs; handlers must never see a dead
// writer. Handler errors are logged and do not stop the fan-out.
func (e *Executor) writeArchive(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, h := range e.handlers {
		if err := h.CreateBackup(zw); err != nil {
			e.log.Error("backup handler failed", "file", filepath.Base(path), "error", err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return f.Close()
}

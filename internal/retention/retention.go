// Package retention caps the number of archives kept per rule.
package retention

import (
	"path/filepath"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/fs"
	"github.com/wrenware/content-archiver/internal/logging"
	"github.com/wrenware/content-archiver/internal/rules"
)

type Enforcer struct {
	fsys fs.FS
	log  logging.Logger
}

func New(fsys fs.FS, log logging.Logger) *Enforcer {
	return &Enforcer{fsys: fsys, log: log}
}

// Apply deletes the oldest archives of one rule beyond its version cap.
// Filenames sort chronologically, so the head of the listing is the oldest.
// A failed delete is logged and the remaining deletes still run.
func (e *Enforcer) Apply(dir string, rule *rules.Rule) {
	if rule.MaxVersions <= 0 {
		e.log.Debug("retention unlimited for rule", "rule", rule.Name)
		return
	}

	matches, err := archive.Glob(dir, rule.Prefix)
	if err != nil {
		e.log.Error("retention: listing archives failed", "rule", rule.Name, "error", err)
		return
	}

	excess := len(matches) - rule.MaxVersions
	for i := 0; i < excess; i++ {
		if err := e.fsys.Remove(matches[i]); err != nil {
			e.log.Error("retention: removing old backup failed", "file", matches[i], "error", err)
			continue
		}
		e.log.Info("removed old backup", "rule", rule.Name, "file", filepath.Base(matches[i]))
	}
}

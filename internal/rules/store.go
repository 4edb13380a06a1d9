// Package rules holds the backup rules and their last-backup clocks.
// The rule list is fixed after construction; only LastBackupSeconds moves,
// and only forward, and only from the persist worker.
package rules

import (
	"time"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/config"
	"github.com/wrenware/content-archiver/internal/logging"
)

// Rule is one backup policy: how often to archive and how many versions to keep.
type Rule struct {
	Name              string
	IntervalSeconds   int64
	Prefix            string // filename prefix, derived from Name
	MaxVersions       int    // <= 0 means unlimited
	LastBackupSeconds int64  // unix seconds of the newest archive, 0 = never
}

type Store struct {
	rules []*Rule
	log   logging.Logger
}

// NewStore builds the rule list from settings and seeds each rule's clock
// from the most recent matching archive already in dir.
func NewStore(dir string, defs []config.RuleConfig, scanner *archive.Scanner, log logging.Logger) *Store {
	s := &Store{log: log}
	seen := make(map[string]bool)

	for _, def := range defs {
		if def.BackupInterval.Raw != "" {
			log.Warn("unparsable backupInterval, defaulting to 0",
				"rule", def.Name, "value", def.BackupInterval.Raw)
		}
		if def.MaxBackupVersions.Raw != "" {
			log.Warn("unparsable maxBackupVersions, defaulting to 0",
				"rule", def.Name, "value", def.MaxBackupVersions.Raw)
		}

		r := &Rule{
			Name:            def.Name,
			IntervalSeconds: def.BackupInterval.Int64(),
			Prefix:          archive.RulePrefix(def.Name),
			MaxVersions:     def.MaxBackupVersions.Int(),
		}

		// Two rules with the same prefix interleave archives and fight over
		// retention. Setups like this exist, so keep both, loudly.
		if seen[r.Prefix] {
			log.Warn("duplicate rule prefix, archives will collide", "rule", r.Name, "prefix", r.Prefix)
		}
		seen[r.Prefix] = true

		if last, ok := scanner.MostRecent(dir, r.Prefix); ok {
			r.LastBackupSeconds = last.Timestamp.Unix()
			log.Info("backup rule loaded",
				"rule", r.Name,
				"interval", r.IntervalSeconds,
				"maxVersions", r.MaxVersions,
				"sinceLastBackup", time.Since(last.Timestamp).Truncate(time.Second).String())
		} else {
			log.Info("backup rule loaded, never backed up",
				"rule", r.Name,
				"interval", r.IntervalSeconds,
				"maxVersions", r.MaxVersions)
		}

		s.rules = append(s.rules, r)
	}

	return s
}

// Rules returns the rule list in configuration order.
func (s *Store) Rules() []*Rule {
	return s.rules
}

// Advance moves a rule's last-backup clock to epoch. The clock never moves
// backwards.
func (s *Store) Advance(r *Rule, epoch int64) {
	if epoch > r.LastBackupSeconds {
		r.LastBackupSeconds = epoch
	}
}

package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/wrenware/content-archiver/internal/logging"
)

// Info describes one archive discovered on disk.
type Info struct {
	Name      string
	Path      string
	Timestamp time.Time
}

// Scanner finds existing archives by parsing their filenames.
type Scanner struct {
	log logging.Logger
}

func NewScanner(log logging.Logger) *Scanner {
	return &Scanner{log: log}
}

// MostRecent returns the archive with the latest embedded timestamp for the
// given rule prefix. Entries whose timestamp does not parse are skipped.
// A missing directory means no archives yet, not an error. When two entries
// carry an identical timestamp the first one seen wins.
func (s *Scanner) MostRecent(dir, prefix string) (Info, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Error("scanning backup directory failed", "dir", dir, "error", err)
		}
		return Info{}, false
	}

	pat := namePattern(prefix)

	var best Info
	found := false

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		m := pat.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		ts, err := time.Parse(TimestampLayout, m[1])
		if err != nil {
			s.log.Warn("skipping backup with invalid timestamp", "file", name, "error", err)
			continue
		}

		if !found || ts.After(best.Timestamp) {
			best = Info{Name: name, Path: filepath.Join(dir, name), Timestamp: ts}
			found = true
		}
	}

	return best, found
}

// Package archive owns the backup filename grammar and the directory scan
// that recovers scheduling state from it. There is no separate index: the
// set of archives on disk is whatever the filenames say it is, recomputed
// on every call.
//
// An archive is named "backup-" + <rule prefix> + <timestamp> + ".zip",
// where the timestamp is fixed-width and zero-padded so that lexicographic
// order equals chronological order.
package archive

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// TimestampLayout is the embedded creation time, UTC. Fixed width keeps
	// filename sorting chronological.
	TimestampLayout = "2006-01-02_15-04-05"

	fileNameLead = "backup-"
	fileNameExt  = ".zip"
)

const timestampPattern = `\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`

// RulePrefix derives the filename prefix for a rule name: lowercased, spaces
// replaced with underscores, trailing separator. Pure function of the name.
func RulePrefix(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_")) + "-"
}

// FileName builds the archive filename for a rule prefix and creation time.
func FileName(prefix string, t time.Time) string {
	return fileNameLead + prefix + t.UTC().Format(TimestampLayout) + fileNameExt
}

// namePattern anchors the full grammar for one rule prefix, capturing the
// timestamp.
func namePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(fileNameLead+prefix) +
		`(` + timestampPattern + `)` + regexp.QuoteMeta(fileNameExt) + `$`)
}

// ParseTimestamp extracts and parses the embedded timestamp of an archive
// named for the given prefix. Returns false when the name does not match the
// grammar or the timestamp is not a real datetime.
func ParseTimestamp(prefix, fileName string) (time.Time, bool) {
	m := namePattern(prefix).FindStringSubmatch(fileName)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Glob returns the full paths of all files in dir matching the
// "backup-<prefix>*.zip" pattern, sorted ascending by name. With the empty
// prefix it returns every backup archive regardless of rule. Timestamps are
// not validated here; this is the listing retention and loading operate on.
func Glob(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, fileNameLead+prefix) && strings.HasSuffix(name, fileNameExt) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}

	sort.Strings(matches)
	return matches, nil
}

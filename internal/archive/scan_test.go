package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenware/content-archiver/internal/logging"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func TestMostRecentPicksLatest(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "backup-daily-2024-01-01_00-00-00.zip")
	touch(t, dir, "backup-daily-2024-06-01_00-00-00.zip")
	touch(t, dir, "backup-weekly-2024-12-01_00-00-00.zip")

	s := NewScanner(logging.Nop{})

	best, ok := s.MostRecent(dir, "daily-")
	require.True(t, ok)
	assert.Equal(t, "backup-daily-2024-06-01_00-00-00.zip", best.Name)
	assert.True(t, best.Timestamp.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMostRecentSkipsUnparsable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "backup-daily-notatime.zip")
	// matches the grammar shape but is not a real datetime
	touch(t, dir, "backup-daily-2024-13-41_00-00-00.zip")
	touch(t, dir, "backup-daily-2024-03-01_12-00-00.zip")

	s := NewScanner(logging.Nop{})

	best, ok := s.MostRecent(dir, "daily-")
	require.True(t, ok)
	assert.Equal(t, "backup-daily-2024-03-01_12-00-00.zip", best.Name)
}

func TestMostRecentNoMatches(t *testing.T) {
	s := NewScanner(logging.Nop{})

	_, ok := s.MostRecent(t.TempDir(), "daily-")
	assert.False(t, ok)

	// missing directory means "never backed up", not an error
	_, ok = s.MostRecent(filepath.Join(t.TempDir(), "nope"), "daily-")
	assert.False(t, ok)
}

func TestMostRecentRoundTripsExecutorNames(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)
	touch(t, dir, FileName("daily-", now))

	s := NewScanner(logging.Nop{})

	best, ok := s.MostRecent(dir, "daily-")
	require.True(t, ok)
	assert.True(t, best.Timestamp.Equal(now))
}

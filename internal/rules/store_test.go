package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/config"
	"github.com/wrenware/content-archiver/internal/logging"
)

func newTestStore(t *testing.T, dir string, defs []config.RuleConfig) *Store {
	t.Helper()
	return NewStore(dir, defs, archive.NewScanner(logging.Nop{}), logging.Nop{})
}

func TestNewStoreSeedsFromArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"backup-daily-2024-01-01_00-00-00.zip",
		"backup-daily-2024-06-01_00-00-00.zip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	store := newTestStore(t, dir, []config.RuleConfig{
		{Name: "Daily", BackupInterval: config.FlexInt{Value: 86400}, MaxBackupVersions: config.FlexInt{Value: 3}},
		{Name: "Weekly", BackupInterval: config.FlexInt{Value: 604800}, MaxBackupVersions: config.FlexInt{Value: 2}},
	})

	rs := store.Rules()
	require.Len(t, rs, 2)

	daily := rs[0]
	assert.Equal(t, "daily-", daily.Prefix)
	assert.Equal(t, int64(86400), daily.IntervalSeconds)
	assert.Equal(t, 3, daily.MaxVersions)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Unix(), daily.LastBackupSeconds)

	// no matching archives: never backed up
	assert.Equal(t, int64(0), rs[1].LastBackupSeconds)
}

func TestAdvanceOnlyForward(t *testing.T) {
	store := newTestStore(t, t.TempDir(), []config.RuleConfig{{Name: "Daily"}})
	r := store.Rules()[0]

	store.Advance(r, 100)
	assert.Equal(t, int64(100), r.LastBackupSeconds)

	store.Advance(r, 50)
	assert.Equal(t, int64(100), r.LastBackupSeconds)

	store.Advance(r, 150)
	assert.Equal(t, int64(150), r.LastBackupSeconds)
}

type warnRecorder struct {
	logging.Nop
	warns []string
}

func (r *warnRecorder) Warn(msg string, args ...any) { r.warns = append(r.warns, msg) }

func TestNewStoreReportsUnparsableFields(t *testing.T) {
	rec := &warnRecorder{}
	store := NewStore(t.TempDir(), []config.RuleConfig{
		{Name: "Broken", BackupInterval: config.FlexInt{Raw: "often"}, MaxBackupVersions: config.FlexInt{Raw: "lots"}},
	}, archive.NewScanner(logging.Nop{}), rec)

	// the rule still exists, with zeroed fields
	rs := store.Rules()
	require.Len(t, rs, 1)
	assert.Equal(t, int64(0), rs[0].IntervalSeconds)
	assert.Equal(t, 0, rs[0].MaxVersions)

	require.Len(t, rec.warns, 2)
	assert.Contains(t, rec.warns[0], "backupInterval")
	assert.Contains(t, rec.warns[1], "maxBackupVersions")
}

func TestDuplicateNamesShareAPrefix(t *testing.T) {
	store := newTestStore(t, t.TempDir(), []config.RuleConfig{
		{Name: "Daily"},
		{Name: "daily"},
	})

	// both kept; the collision is only logged
	rs := store.Rules()
	require.Len(t, rs, 2)
	assert.Equal(t, rs[0].Prefix, rs[1].Prefix)
}

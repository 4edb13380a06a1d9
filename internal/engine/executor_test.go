package engine

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenware/content-archiver/internal/archive"
	"github.com/wrenware/content-archiver/internal/config"
	"github.com/wrenware/content-archiver/internal/fs"
	"github.com/wrenware/content-archiver/internal/logging"
	"github.com/wrenware/content-archiver/internal/retention"
	"github.com/wrenware/content-archiver/internal/rules"
)

// recordingHandler counts invocations and writes one payload entry per backup.
type recordingHandler struct {
	created      int
	loaded       int
	consolidated int
	err          error
}

func (h *recordingHandler) CreateBackup(zw *zip.Writer) error {
	h.created++
	if h.err != nil {
		return h.err
	}
	w, err := zw.Create("payload.txt")
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("payload"))
	return err
}

func (h *recordingHandler) LoadBackup(*zip.Reader) error {
	h.loaded++
	return h.err
}

func (h *recordingHandler) ConsolidateBackup(zw *zip.Writer) error {
	h.consolidated++
	if h.err != nil {
		return h.err
	}
	w, err := zw.Create("consolidated.txt")
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("merged"))
	return err
}

func newStore(t *testing.T, dir string, defs ...config.RuleConfig) *rules.Store {
	t.Helper()
	return rules.NewStore(dir, defs, archive.NewScanner(logging.Nop{}), logging.Nop{})
}

func newExecutor(dir string, store *rules.Store, handlers ...Handler) *Executor {
	return NewExecutor(dir, store, handlers, retention.New(fs.New(), logging.Nop{}), logging.Nop{})
}

func archiveNames(t *testing.T, dir string) []string {
	t.Helper()
	paths, err := archive.Glob(dir, "")
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return names
}

func TestBackupFiresOnlyWhenIntervalExceeded(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, config.RuleConfig{Name: "Daily", BackupInterval: config.FlexInt{Value: 60}})
	rule := store.Rules()[0]

	h := &recordingHandler{}
	exec := newExecutor(dir, store, h)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.Advance(rule, now.Unix()-60)

	// elapsed == interval: not due yet, firing requires strictly more
	exec.Backup(now)
	assert.Equal(t, 0, h.created)
	assert.Empty(t, archiveNames(t, dir))

	// one more second and it fires
	later := now.Add(time.Second)
	exec.Backup(later)
	assert.Equal(t, 1, h.created)
	assert.Equal(t, []string{archive.FileName("daily-", later)}, archiveNames(t, dir))
	assert.Equal(t, later.Unix(), rule.LastBackupSeconds)

	// immediately after firing the rule is quiet again
	exec.Backup(later.Add(time.Second))
	assert.Equal(t, 1, h.created)
}

func TestBackupRetainsNewestVersions(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, config.RuleConfig{Name: "Daily", BackupInterval: config.FlexInt{Value: 86400}, MaxBackupVersions: config.FlexInt{Value: 3}})

	h := &recordingHandler{}
	exec := newExecutor(dir, store, h)

	// four fire cycles, a bit over a day apart each
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var fired []time.Time
	for i := 0; i < 4; i++ {
		exec.Backup(now)
		fired = append(fired, now)
		now = now.Add(25 * time.Hour)
	}
	assert.Equal(t, 4, h.created)

	// only the three most recent survive retention
	want := []string{
		archive.FileName("daily-", fired[1]),
		archive.FileName("daily-", fired[2]),
		archive.FileName("daily-", fired[3]),
	}
	sort.Strings(want)
	assert.Equal(t, want, archiveNames(t, dir))
}

func TestBackupRulesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir,
		config.RuleConfig{Name: "Hourly", BackupInterval: config.FlexInt{Value: 3600}},
		config.RuleConfig{Name: "Daily", BackupInterval: config.FlexInt{Value: 86400}},
	)

	h := &recordingHandler{}
	exec := newExecutor(dir, store, h)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// hourly is blocked by a directory squatting on its target filename
	blocked := filepath.Join(dir, archive.FileName("hourly-", now))
	require.NoError(t, os.Mkdir(blocked, 0o755))

	exec.Backup(now)

	// the daily archive was still written
	assert.FileExists(t, filepath.Join(dir, archive.FileName("daily-", now)))

	// the failed rule skipped its handlers but still advanced its clock
	assert.Equal(t, 1, h.created)
	assert.Equal(t, now.Unix(), store.Rules()[0].LastBackupSeconds)
}

func TestBackupHandlerErrorDoesNotStopFanOut(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, config.RuleConfig{Name: "Daily", BackupInterval: config.FlexInt{Value: 0}})

	failing := &recordingHandler{err: errors.New("serialization broke")}
	second := &recordingHandler{}
	exec := newExecutor(dir, store, failing, second)

	exec.Backup(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, 1, failing.created)
	assert.Equal(t, 1, second.created)
	require.Len(t, archiveNames(t, dir), 1)
}

func TestBackupArchivesAreReadable(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir, config.RuleConfig{Name: "Daily", BackupInterval: config.FlexInt{Value: 0}})

	exec := newExecutor(dir, store, &recordingHandler{})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	exec.Backup(now)

	zr, err := zip.OpenReader(filepath.Join(dir, archive.FileName("daily-", now)))
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	assert.Equal(t, "payload.txt", zr.File[0].Name)
}

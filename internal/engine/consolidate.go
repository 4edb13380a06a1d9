package engine

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wrenware/content-archiver/internal/fs"
	"github.com/wrenware/content-archiver/internal/logging"
)

// Consolidator produces an augmented copy of an existing archive: the
// original entries plus whatever the handlers choose to merge in.
type Consolidator struct {
	dir        string
	scratchDir string
	handlers   []Handler
	fsys       fs.FS
	log        logging.Logger
}

func NewConsolidator(dir string, handlers []Handler, fsys fs.FS, log logging.Logger) *Consolidator {
	return &Consolidator{
		dir:        dir,
		scratchDir: os.TempDir(),
		handlers:   handlers,
		fsys:       fsys,
		log:        log,
	}
}

// WithScratchDir overrides where the working copy is made.
func (c *Consolidator) WithScratchDir(dir string) *Consolidator {
	c.scratchDir = dir
	return c
}

// Consolidate copies the named archive out of the backup directory, merges
// handler content into the copy and returns the resulting path. Where the
// result ends up permanently is the caller's business. Any failure before
// the merge completes aborts with no partial state left at the returned
// path. Must not run while a persist cycle is active.
func (c *Consolidator) Consolidate(ctx context.Context, fileName string) (string, error) {
	// fileName comes from the command line; anything with path components
	// could reach outside the backup and scratch directories.
	if fileName == "" || fileName == "." || fileName == ".." || fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("archive name %q must be a bare file name", fileName)
	}

	src := filepath.Join(c.dir, fileName)
	scratch := filepath.Join(c.scratchDir, fileName)

	if err := c.fsys.CopyFile(ctx, src, scratch); err != nil {
		return "", fmt.Errorf("copying archive to scratch: %w", err)
	}

	// The zip format cannot be appended to in place, so the scratch copy is
	// rewritten entry-for-entry into a new archive before the handlers add
	// their content, then swapped back over the copy.
	merged := scratch + ".merged"
	if err := c.merge(scratch, merged); err != nil {
		_ = c.fsys.Remove(scratch)
		_ = c.fsys.Remove(merged)
		return "", err
	}

	if err := c.fsys.Rename(ctx, merged, scratch); err != nil {
		_ = c.fsys.Remove(scratch)
		_ = c.fsys.Remove(merged)
		return "", fmt.Errorf("finalizing consolidated archive: %w", err)
	}

	c.log.Info("consolidated backup", "file", fileName, "result", scratch)
	return scratch, nil
}

func (c *Consolidator) merge(srcPath, dstPath string) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return fmt.Errorf("opening archive copy: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("opening merge target: %w", err)
	}

	zw := zip.NewWriter(out)

	// Raw copy, no recompression.
	for _, f := range zr.File {
		if err := zw.Copy(f); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("copying entry %s: %w", f.Name, err)
		}
	}

	for _, h := range c.handlers {
		if err := h.ConsolidateBackup(zw); err != nil {
			c.log.Error("consolidate handler failed", "file", filepath.Base(srcPath), "error", err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalizing merge: %w", err)
	}
	return out.Close()
}

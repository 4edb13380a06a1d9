// Package content ships the default backup handler: it archives a content
// directory tree as-is and restores it on load. Replaying archives oldest
// to newest makes the restore last-write-wins per file.
package content

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wrenware/content-archiver/internal/logging"
)

type Handler struct {
	root string
	log  logging.Logger
}

func New(root string, log logging.Logger) *Handler {
	return &Handler{root: root, log: log}
}

// CreateBackup writes every file under the content root into the archive,
// with forward-slash paths relative to the root. A missing root is an empty
// backup, not an error.
func (h *Handler) CreateBackup(zw *zip.Writer) error {
	if _, err := os.Stat(h.root); errors.Is(err, iofs.ErrNotExist) {
		return nil
	}

	return filepath.WalkDir(h.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(h.root, path)
		if err != nil {
			return err
		}

		return h.addFile(zw, path, filepath.ToSlash(rel))
	})
}

// LoadBackup extracts the archive into the content root, overwriting
// whatever is there. Entries that would escape the root are refused.
// A bad entry is logged and skipped so one damaged file does not abort the
// whole restore.
func (h *Handler) LoadBackup(zr *zip.Reader) error {
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		target, err := h.safePath(f.Name)
		if err != nil {
			h.log.Warn("refusing archive entry", "entry", f.Name, "error", err)
			continue
		}

		if err := extractFile(f, target); err != nil {
			h.log.Error("extracting archive entry failed", "entry", f.Name, "error", err)
		}
	}
	return nil
}

// ConsolidateBackup merges the current content tree into the archive copy.
func (h *Handler) ConsolidateBackup(zw *zip.Writer) error {
	return h.CreateBackup(zw)
}

func (h *Handler) addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(w, in)
	return err
}

// safePath resolves an archive entry name below the content root, rejecting
// absolute paths and traversal.
func (h *Handler) safePath(name string) (string, error) {
	target := filepath.Join(h.root, filepath.FromSlash(name))
	if target != filepath.Clean(h.root) &&
		!strings.HasPrefix(target, filepath.Clean(h.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry escapes content root")
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

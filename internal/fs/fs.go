// Package fs defines the filesystem abstraction used by content-archiver.
// Archive files, the crash marker and scratch copies all go through it so
// that the engine can be tested against temp directories and so transient
// errors on network filesystems are retried in one place.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
}

type FS interface {
	Stat(path string) (FileInfo, error)
	CopyFile(ctx context.Context, src, dst string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	Remove(path string) error
	Touch(path string) error
}

//go:build unix

package fs

import (
	"os"
	"syscall"
)

// inodeOf extracts the inode number, used to detect source replacement during copy.
func inodeOf(info os.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return st.Ino
}

// Package engine drives the backup lifecycle: the periodic persist cycle,
// startup replay of existing archives, and on-demand consolidation.
package engine

import "archive/zip"

// Handler serializes one category of server content into and out of backup
// archives. The engine never looks inside an archive; handlers own the
// content format entirely. Handlers are registered before startup and every
// operation fans out to all of them in registration order.
type Handler interface {
	// CreateBackup writes the handler's content into a fresh archive.
	CreateBackup(zw *zip.Writer) error

	// LoadBackup replays one existing archive into the handler. During
	// startup the handler sees every archive from oldest to newest and is
	// responsible for its own last-write-wins semantics.
	LoadBackup(zr *zip.Reader) error

	// ConsolidateBackup merges additional content into a copy of an
	// existing archive.
	ConsolidateBackup(zw *zip.Writer) error
}

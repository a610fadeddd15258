// Package handles implements the service-side handle tables that
// translate opaque client pointers (FCB and FILBUF addresses) into
// host-side state (spec.md §4.5). The original is a pair of
// linear-scan vectors; the spec's own design note flags that scan as
// a defect, so this version is backed by plain maps for O(1) lookup,
// release, and reuse while keeping the same "free on zero key"
// semantics.
package handles

import (
	"sync"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
)

// FileSlot holds the host-side state for one open client FCB: the
// open host file and the position after the last read, write or
// truncate. pkg/server addresses the file by absolute offset and does
// not consult Position.
type FileSlot struct {
	File     hostfs.File
	Position uint32
}

// DirSlot holds the materialized result of one files/nfiles
// enumeration: the full vector of matching entries and a cursor into
// it.
type DirSlot struct {
	Entries []DirEntry
	Cursor  int
}

// DirEntry is one enumeration result. Its shape is deliberately
// generic here; pkg/server fills in the wire-level FileInfo payload.
type DirEntry struct {
	Name      string
	Size      uint32
	Attr      byte
	Date      uint16
	Time      uint16
}

// Files is the open-file handle table, keyed by client FCB pointer.
type Files struct {
	mu   sync.Mutex
	live map[uint32]*FileSlot
}

// NewFiles returns an empty file handle table.
func NewFiles() *Files {
	return &Files{live: make(map[uint32]*FileSlot)}
}

// Lookup returns the slot for key, or nil if none is open.
func (f *Files) Lookup(key uint32) *FileSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[key]
}

// Open installs slot under key, closing whatever file was already
// open under the same key first (spec.md §4.5: "reused if the same
// client pointer is presented twice, the prior fd is closed first").
func (f *Files) Open(key uint32, slot *FileSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prior, ok := f.live[key]; ok && prior.File != nil {
		_ = prior.File.Close()
	}
	f.live[key] = slot
}

// Release removes the slot for key, reporting whether one was
// present.
func (f *Files) Release(key uint32) (*FileSlot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.live[key]
	if ok {
		delete(f.live, key)
	}
	return slot, ok
}

// Dirs is the directory-enumeration handle table, keyed by client
// FILBUF pointer.
type Dirs struct {
	mu   sync.Mutex
	live map[uint32]*DirSlot
}

// NewDirs returns an empty directory handle table.
func NewDirs() *Dirs {
	return &Dirs{live: make(map[uint32]*DirSlot)}
}

// Lookup returns the slot for key, or nil if there is no enumeration
// in progress for it.
func (d *Dirs) Lookup(key uint32) *DirSlot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[key]
}

// Begin starts a fresh enumeration for key, discarding any prior
// vector held for the same key (spec.md §4.5: "each files begins a
// fresh enumeration, discarding any prior vector for that key").
func (d *Dirs) Begin(key uint32, entries []DirEntry) *DirSlot {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot := &DirSlot{Entries: entries}
	d.live[key] = slot
	return slot
}

// Release frees the slot for key, on exhaustion or enumeration error;
// a restart replaces the slot through Begin instead.
func (d *Dirs) Release(key uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, key)
}

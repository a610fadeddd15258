// Package hostfs is the filesystem adapter consumed by the service
// core (spec.md §4.9). It is the thin boundary every host-specific
// detail crosses; the core only ever calls the FS interface.
package hostfs

import (
	"io"
	"time"
)

// Info is the subset of host file metadata the core needs.
type Info struct {
	Size     int64
	ModTime  time.Time
	IsDir    bool
	ReadOnly bool
}

// StatFS reports free/total space, in bytes, for the filesystem
// backing a root path (spec.md §4.8 dskfre).
type StatFS struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// DirEntry is one entry returned by ReadDir: a name plus the same
// metadata Stat would report, avoiding a second round-trip per entry.
type DirEntry struct {
	Name string
	Info Info
}

// File is an open host file descriptor.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	// Truncate sets the file's length, per ftruncate.
	Truncate(size int64) error
	// Stat reports the file's current metadata.
	Stat() (Info, error)
	// SetModTime sets the file's modification time from the packed
	// MS-DOS-style date/time fields carried on the wire (spec.md §3
	// File-info record), per set_mtime.
	SetModTime(date, timeOfDay uint16) error
}

// FS is the exact surface spec.md §4.9 requires of a host filesystem.
// Nothing else is assumed about the host.
type FS interface {
	Stat(path string) (Info, error)
	Chmod(path string, readOnly bool) error
	Mkdir(path string) error
	Rmdir(path string) error
	Rename(oldPath, newPath string) error
	Unlink(path string) error
	ReadDir(path string) ([]DirEntry, error)

	// Open flags mirror the client's mode byte: ModeRead, ModeWrite,
	// ModeReadWrite (spec.md §3 FCB offset 14).
	Open(path string, mode OpenMode) (File, error)
	Create(path string, exclusive bool) (File, error)

	StatFS(path string) (StatFS, error)
}

// OpenMode is the client's open-mode byte.
type OpenMode byte

const (
	ModeRead OpenMode = iota
	ModeWrite
	ModeReadWrite
)

// PackModTime encodes t into the packed MS-DOS-style date/time fields
// carried in a File-info record (spec.md §3), the inverse of
// File.SetModTime.
func PackModTime(t time.Time) (date, timeOfDay uint16) {
	date = uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	timeOfDay = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return date, timeOfDay
}

package hostfs

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// OSFilesystem implements FS against the real, local filesystem using
// os and golang.org/x/sys/unix — the latter already a dependency of
// the teacher's bus manager (bus_manager.go imports it for CAN socket
// option constants; reused here for Statfs instead). SetModTime uses
// os.Chtimes.
type OSFilesystem struct{}

func NewOSFilesystem() *OSFilesystem { return &OSFilesystem{} }

func toInfo(fi os.FileInfo) Info {
	return Info{
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		IsDir:    fi.IsDir(),
		ReadOnly: fi.Mode().Perm()&0o200 == 0,
	}
}

func (o *OSFilesystem) Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return toInfo(fi), nil
}

func (o *OSFilesystem) Chmod(path string, readOnly bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := fi.Mode()
	if readOnly {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	return os.Chmod(path, mode)
}

func (o *OSFilesystem) Mkdir(path string) error { return os.Mkdir(path, 0o755) }
func (o *OSFilesystem) Rmdir(path string) error { return os.Remove(path) }
func (o *OSFilesystem) Unlink(path string) error { return os.Remove(path) }

func (o *OSFilesystem) Rename(oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return syscall.ENOTEMPTY
	}
	return os.Rename(oldPath, newPath)
}

func (o *OSFilesystem) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, DirEntry{Name: e.Name(), Info: toInfo(fi)})
	}
	return out, nil
}

func (o *OSFilesystem) Open(path string, mode OpenMode) (File, error) {
	var flag int
	switch mode {
	case ModeRead:
		flag = os.O_RDONLY
	case ModeWrite:
		flag = os.O_WRONLY
	case ModeReadWrite:
		flag = os.O_RDWR
	default:
		return nil, fmt.Errorf("hostfs: invalid open mode %d", mode)
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (o *OSFilesystem) Create(path string, exclusive bool) (File, error) {
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if exclusive {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (o *OSFilesystem) StatFS(path string) (StatFS, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(filepath.Clean(path), &st); err != nil {
		return StatFS{}, err
	}
	blockSize := uint64(st.Bsize)
	return StatFS{
		TotalBytes: st.Blocks * blockSize,
		FreeBytes:  st.Bavail * blockSize,
	}, nil
}

type osFile struct {
	f *os.File
}

func (o *osFile) ReadAt(p []byte, off int64) (int, error)  { return o.f.ReadAt(p, off) }
func (o *osFile) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }
func (o *osFile) Close() error                             { return o.f.Close() }
func (o *osFile) Truncate(size int64) error                 { return o.f.Truncate(size) }

func (o *osFile) Stat() (Info, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return Info{}, err
	}
	return toInfo(fi), nil
}

// SetModTime applies the packed MS-DOS-style date/time the client
// sent (spec.md §3 File-info record layout) to the file's mtime.
func (o *osFile) SetModTime(date, timeOfDay uint16) error {
	sec := int((timeOfDay & 0x1f) * 2)
	min := int((timeOfDay >> 5) & 0x3f)
	hour := int((timeOfDay >> 11) & 0x1f)
	day := int(date & 0x1f)
	month := int((date >> 5) & 0x0f)
	year := int(date>>9) + 1980

	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.Local)
	return os.Chtimes(o.f.Name(), t, t)
}

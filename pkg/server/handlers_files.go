package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/pathtrans"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/nozomi-fs/remotedrive/pkg/server/errmap"
	"github.com/nozomi-fs/remotedrive/pkg/server/handles"
)

func packFilesResponse(res int8, fi *proto.FileInfo) []byte {
	r := proto.FilesResponse{Res: res}
	if fi != nil {
		r.File = *fi
	}
	b, _ := r.MarshalBinary()
	return b
}

// popDirEntry serves the next buffered entry for key, releasing the
// slot once it is exhausted (spec.md §4.5 and §4.4 files/nfiles).
func popDirEntry(d *handles.Dirs, key uint32) []byte {
	slot := d.Lookup(key)
	if slot == nil || slot.Cursor >= len(slot.Entries) {
		if slot != nil {
			d.Release(key)
		}
		return packFilesResponse(int8(errmap.NOMORE), nil)
	}
	e := slot.Entries[slot.Cursor]
	slot.Cursor++
	if slot.Cursor >= len(slot.Entries) {
		d.Release(key)
	}
	var fi proto.FileInfo
	fi.Attr = e.Attr
	fi.Time = e.Time
	fi.Date = e.Date
	fi.Length = e.Size
	fi.SetName([]byte(e.Name))
	return packFilesResponse(0, &fi)
}

// handleFiles begins (or restarts) an enumeration against the
// directory addressed by the request and returns its first matching
// entry, buffering the rest for nfiles (spec.md §4.4 files, §4.6 Name
// matching and Volume label synthesis).
func handleFiles(s *Server, payload []byte) []byte {
	var req proto.FilesRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packFilesResponse(int8(errmap.ILGPARM), nil)
	}

	isRoot := req.Path.IsRoot()
	path, err := s.resolvePath(&req.Path, false)
	if err != nil {
		return packFilesResponse(int8(errmap.NODIR), nil)
	}
	pattern := pathtrans.BuildPattern(&req.Path)

	entries, err := s.FS.ReadDir(path)
	if err != nil {
		code := errmap.FromError(errmap.CallOpendir, err)
		log.WithField("path", path).WithError(err).Debug("service: files failed to open directory")
		s.dirs.Release(req.FileP)
		return packFilesResponse(int8(code), nil)
	}

	var matches []handles.DirEntry

	if isRoot && req.Attr&proto.AttrVolume != 0 && pattern.IsVolumeQuery() {
		matches = append(matches, handles.DirEntry{
			Name: string(pathtrans.VolumeName(path)),
			Attr: proto.AttrVolume,
		})
	}

	for _, e := range entries {
		if isRoot && (e.Name == "." || e.Name == "..") {
			continue
		}
		entry, ok := matchEntry(pattern, e)
		if !ok {
			continue
		}
		if entry.Attr&req.Attr == 0 {
			continue
		}
		matches = append(matches, entry)
	}

	s.dirs.Begin(req.FileP, matches)
	return popDirEntry(s.dirs, req.FileP)
}

// handleNFiles continues an enumeration previously started by files
// (spec.md §4.4 nfiles).
func handleNFiles(s *Server, payload []byte) []byte {
	var req proto.NFilesRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packFilesResponse(int8(errmap.ILGPARM), nil)
	}
	return popDirEntry(s.dirs, req.FileP)
}

// matchEntry converts a host directory entry to Shift-JIS, rejects it
// if its name is unrepresentable or illegal in the client's name
// space or too large to report (spec.md §4.6), and tests it against
// pattern.
func matchEntry(pattern pathtrans.Pattern, e hostfs.DirEntry) (handles.DirEntry, bool) {
	if e.Info.Size > 0xffffffff {
		return handles.DirEntry{}, false
	}
	nameSJIS, err := pathtrans.FromUTF8(e.Name)
	if err != nil || !pathtrans.ValidCandidateName(nameSJIS) {
		return handles.DirEntry{}, false
	}
	if !pattern.Matches(nameSJIS) {
		return handles.DirEntry{}, false
	}

	date, timeOfDay := hostfs.PackModTime(e.Info.ModTime)
	return handles.DirEntry{
		Name: string(nameSJIS),
		Size: uint32(e.Info.Size),
		Attr: attrFor(e.Info),
		Date: date,
		Time: timeOfDay,
	}, true
}

package client

import "github.com/nozomi-fs/remotedrive/pkg/proto"

// DirBatchSize is how many entries a Files call prefetches ahead of
// the caller, held in the local slot and drained by subsequent NFiles
// calls with no further round-trips (spec.md §4.3 "files / nfiles
// (driver side)"). The wire protocol carries one entry per frame, so
// prefetching N entries costs N round-trips up front — the payoff is
// that the host OS's own, separate directory-read calls are answered
// instantly once the batch has landed.
const DirBatchSize = 4

// dirSlot is the driver-side directory-enumeration cache entry
// (spec.md §3 "Directory-enumeration slot").
type dirSlot struct {
	entries []proto.FilesResponse
	cursor  int
}

// Dir is a directory-enumeration handle: the FILBUF pointer identity
// presented to the server, plus its local batching slot.
type Dir struct {
	Pointer uint32
	slot    *dirSlot
}

// Files begins (or restarts) an enumeration matching path/attr and
// returns the first entry, prefetching up to DirBatchSize-1 further
// entries into the local slot.
func (c *Client) Files(dir *Dir, path proto.NameBuf, attr byte) (*proto.FileInfo, error) {
	resp, err := c.call(&proto.FilesRequest{Attr: attr, FileP: dir.Pointer, Path: path})
	if err != nil {
		return nil, err
	}
	var fr proto.FilesResponse
	if err := fr.UnmarshalBinary(resp); err != nil {
		return nil, err
	}
	if fr.Res < 0 {
		dir.slot = nil
		return nil, statusErr(fr.Res)
	}

	dir.slot = &dirSlot{entries: []proto.FilesResponse{fr}, cursor: 1}
	for i := 1; i < DirBatchSize; i++ {
		more, err := c.nfilesRaw(dir.Pointer)
		if err != nil || more.Res < 0 {
			break
		}
		dir.slot.entries = append(dir.slot.entries, *more)
	}
	return &fr.File, nil
}

// NFiles continues the enumeration on dir, serving from the local
// batch when one is held and only issuing a request once it is
// exhausted (spec.md §4.3). Once exhausted the slot is freed.
func (c *Client) NFiles(dir *Dir) (*proto.FileInfo, error) {
	if dir.slot != nil && dir.slot.cursor < len(dir.slot.entries) {
		entry := dir.slot.entries[dir.slot.cursor]
		dir.slot.cursor++
		if dir.slot.cursor >= len(dir.slot.entries) {
			dir.slot = nil
		}
		if entry.Res < 0 {
			return nil, statusErr(entry.Res)
		}
		return &entry.File, nil
	}

	fr, err := c.nfilesRaw(dir.Pointer)
	if err != nil {
		return nil, err
	}
	if fr.Res < 0 {
		return nil, statusErr(fr.Res)
	}
	return &fr.File, nil
}

func (c *Client) nfilesRaw(dirp uint32) (*proto.FilesResponse, error) {
	resp, err := c.call(&proto.NFilesRequest{FileP: dirp})
	if err != nil {
		return nil, err
	}
	var fr proto.FilesResponse
	if err := fr.UnmarshalBinary(resp); err != nil {
		return nil, err
	}
	return &fr, nil
}

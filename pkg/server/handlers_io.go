package server

import (
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/nozomi-fs/remotedrive/pkg/server/errmap"
	"github.com/nozomi-fs/remotedrive/pkg/server/handles"
)

func packOpenResponse(res int8, size uint32) []byte {
	r := proto.OpenResponse{Res: res, Size: size}
	b, _ := r.MarshalBinary()
	return b
}

// handleCreate opens a brand-new file (spec.md §4.4 create). A
// truthy mode byte means "do not use an exclusive create" — the
// inverted flag the original driver sends, kept intact here.
func handleCreate(s *Server, payload []byte) []byte {
	var req proto.CreateRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packOpenResponse(int8(errmap.ILGPARM), 0)
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return packOpenResponse(int8(errmap.NODIR), 0)
	}

	exclusive := req.Mode == 0
	f, err := s.FS.Create(path, exclusive)
	if err != nil {
		code := errmap.FromError(errmap.CallCreate, err)
		log.WithField("path", path).WithError(err).Debug("service: create failed")
		return packOpenResponse(int8(code), 0)
	}
	s.files.Open(req.FCB, &handles.FileSlot{File: f, Position: 0})
	return packOpenResponse(0, 0)
}

// handleOpen opens an existing file, reporting its size (spec.md §4.4
// open).
func handleOpen(s *Server, payload []byte) []byte {
	var req proto.OpenRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packOpenResponse(int8(errmap.ILGPARM), 0)
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return packOpenResponse(int8(errmap.NODIR), 0)
	}

	var mode hostfs.OpenMode
	switch req.Mode {
	case 0:
		mode = hostfs.ModeRead
	case 1:
		mode = hostfs.ModeWrite
	case 2:
		mode = hostfs.ModeReadWrite
	default:
		return packOpenResponse(int8(errmap.ILGARG), 0)
	}

	f, err := s.FS.Open(path, mode)
	if err != nil {
		code := errmap.FromError(errmap.CallOpen, err)
		log.WithField("path", path).WithError(err).Debug("service: open failed")
		return packOpenResponse(int8(code), 0)
	}

	var size uint32
	if info, err := f.Stat(); err == nil {
		size = uint32(info.Size)
	}
	s.files.Open(req.FCB, &handles.FileSlot{File: f, Position: 0})
	return packOpenResponse(0, size)
}

// handleClose releases the FCB's slot unconditionally, even when the
// underlying close fails (spec.md §4.4 close, per the original's
// fi_free(cmd->fcb) in its errout path).
func handleClose(s *Server, payload []byte) []byte {
	var req proto.CloseRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	slot, ok := s.files.Release(req.FCB)
	if !ok {
		return writeStatus(int8(errmap.BADF))
	}
	if err := slot.File.Close(); err != nil {
		code := errmap.FromError(errmap.CallOther, err)
		log.WithField("fcb", req.FCB).WithError(err).Debug("service: close failed")
		return writeStatus(int8(code))
	}
	return writeStatus(0)
}

func packReadResponse(res int8, data []byte) []byte {
	r := proto.ReadResponse{}
	if res < 0 {
		r.Len = int16(res)
	} else {
		r.Len = int16(len(data))
		r.Data = data
	}
	b, _ := r.MarshalBinary()
	return b
}

// handleRead reads at an absolute offset (spec.md §4.4 read). Unlike
// the original, the host file is addressed with ReadAt, so there is
// no stateful file cursor to conditionally re-seek — every read
// already names its offset explicitly. slot.Position is still updated
// for parity with the documented FCB slot, but it is observational
// only here.
func handleRead(s *Server, payload []byte) []byte {
	var req proto.ReadRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packReadResponse(int8(errmap.ILGPARM), nil)
	}
	slot := s.files.Lookup(req.FCB)
	if slot == nil {
		return packReadResponse(int8(errmap.BADF), nil)
	}

	buf := make([]byte, req.Len)
	n, err := slot.File.ReadAt(buf, int64(req.Pos))
	if err != nil && err != io.EOF {
		code := errmap.FromError(errmap.CallOther, err)
		log.WithField("fcb", req.FCB).WithError(err).Debug("service: read failed")
		return packReadResponse(int8(code), nil)
	}
	slot.Position = req.Pos + uint32(n)
	return packReadResponse(0, buf[:n])
}

func packWriteResponse(v int16) []byte {
	r := proto.WriteResponse{Len: v}
	b, _ := r.MarshalBinary()
	return b
}

// handleWrite writes at an absolute offset; a zero-length write
// truncates the file to that offset instead (spec.md §4.4 write).
func handleWrite(s *Server, payload []byte) []byte {
	var req proto.WriteRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packWriteResponse(int16(errmap.ILGPARM))
	}
	slot := s.files.Lookup(req.FCB)
	if slot == nil {
		return packWriteResponse(int16(errmap.BADF))
	}

	if req.Len == 0 {
		if err := slot.File.Truncate(int64(req.Pos)); err != nil {
			code := errmap.FromError(errmap.CallOther, err)
			log.WithField("fcb", req.FCB).WithError(err).Debug("service: truncate failed")
			return packWriteResponse(int16(code))
		}
		slot.Position = req.Pos
		return packWriteResponse(0)
	}

	n, err := slot.File.WriteAt(req.Data, int64(req.Pos))
	if err != nil {
		code := errmap.FromError(errmap.CallOther, err)
		log.WithField("fcb", req.FCB).WithError(err).Debug("service: write failed")
		return packWriteResponse(int16(code))
	}
	slot.Position = req.Pos + uint32(n)
	return packWriteResponse(int16(n))
}

func packFiledateResponse(timeOfDay, date uint16) []byte {
	r := proto.FiledateResponse{Time: timeOfDay, Date: date}
	b, _ := r.MarshalBinary()
	return b
}

// handleFiledate queries (Time == 0 && Date == 0) or sets a file's
// modification time (spec.md §4.4 filedate). On failure Date carries
// the sentinel 0xffff and Time carries the client error code, mirroring
// the original's BADF/error reporting shape.
func handleFiledate(s *Server, payload []byte) []byte {
	var req proto.FiledateRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return packFiledateResponse(uint16(errmap.ILGPARM), 0xffff)
	}
	slot := s.files.Lookup(req.FCB)
	if slot == nil {
		return packFiledateResponse(uint16(errmap.BADF), 0xffff)
	}

	if req.Time == 0 && req.Date == 0 {
		info, err := slot.File.Stat()
		if err != nil {
			code := errmap.FromError(errmap.CallOther, err)
			return packFiledateResponse(uint16(code), 0xffff)
		}
		date, timeOfDay := hostfs.PackModTime(info.ModTime)
		return packFiledateResponse(timeOfDay, date)
	}

	if err := slot.File.SetModTime(req.Date, req.Time); err != nil {
		code := errmap.FromError(errmap.CallOther, err)
		return packFiledateResponse(uint16(code), 0xffff)
	}
	return packFiledateResponse(0, 0)
}

// dskfreClusterBytes is the fixed cluster size (sectors-per-cluster *
// sector-size) the original service reports unconditionally.
const (
	dskfreSectorsPerCluster = 128
	dskfreSectorSize        = 1024
	dskfreClusterBytes      = dskfreSectorsPerCluster * dskfreSectorSize
	dskfreMaxReportable     = 0x7fffffff
)

// handleDskfre reports free/total space for the primary exported root
// (spec.md §4.4 dskfre). The wire request carries no unit/drive field
// (confirmed against the original's single compiled-in root path), so
// with multiple exported roots this implementation reports Roots[0].
func handleDskfre(s *Server, payload []byte) []byte {
	root, ok := s.rootFor(0)
	if !ok {
		r := proto.DskfreResponse{Res: -1}
		b, _ := r.MarshalBinary()
		return b
	}

	stat, err := s.FS.StatFS(root)
	if err != nil {
		log.WithField("root", root).WithError(err).Warn("service: statfs failed")
		r := proto.DskfreResponse{Res: -1}
		b, _ := r.MarshalBinary()
		return b
	}

	total := stat.TotalBytes
	free := stat.FreeBytes
	if total > dskfreMaxReportable {
		total = dskfreMaxReportable
	}
	if free > dskfreMaxReportable {
		free = dskfreMaxReportable
	}

	r := proto.DskfreResponse{
		Res:        int32(free),
		FreeClu:    uint16(free / dskfreClusterBytes),
		TotalClu:   uint16(total / dskfreClusterBytes),
		SectPerClu: dskfreSectorsPerCluster,
		SectorSize: dskfreSectorSize,
	}
	b, _ := r.MarshalBinary()
	return b
}

package server

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/pathtrans"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/nozomi-fs/remotedrive/pkg/server/errmap"
)

var errNoRoot = errors.New("server: no root configured for this unit")

// attrFor derives the client's attribute byte from host metadata
// (spec.md §3 "File-info record"): directory or regular bit, plus the
// read-only bit.
func attrFor(info hostfs.Info) byte {
	var a byte
	if info.IsDir {
		a = proto.AttrDir
	} else {
		a = proto.AttrRegular
	}
	if info.ReadOnly {
		a |= proto.AttrReadOnly
	}
	return a
}

// resolvePath builds the host path for nb under s's configured roots,
// per spec.md §4.6.
func (s *Server) resolvePath(nb *proto.NameBuf, full bool) (string, error) {
	root, ok := s.rootFor(nb.Drive)
	if !ok {
		return "", errNoRoot
	}
	return pathtrans.BuildHostPath(nb, full, root)
}

func writeStatus(res int8) []byte {
	r := proto.StatusResponse{Res: res}
	b, _ := r.MarshalBinary()
	return b
}

func handleCheck(s *Server, payload []byte) []byte {
	return writeStatus(0)
}

// handleChdir tests that path exists and is a directory (spec.md
// §4.4 chdir); it performs no filesystem mutation.
func handleChdir(s *Server, payload []byte) []byte {
	var req proto.DirOpRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	path, err := s.resolvePath(&req.Path, false)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	info, err := s.FS.Stat(path)
	if err != nil || !info.IsDir {
		log.WithField("path", path).Debug("service: chdir target missing or not a directory")
		return writeStatus(int8(errmap.NODIR))
	}
	return writeStatus(0)
}

func handleMkdir(s *Server, payload []byte) []byte {
	var req proto.DirOpRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	if err := s.FS.Mkdir(path); err != nil {
		code := errmap.FromError(errmap.CallMkdir, err)
		log.WithField("path", path).WithError(err).Debug("service: mkdir failed")
		return writeStatus(int8(code))
	}
	return writeStatus(0)
}

func handleRmdir(s *Server, payload []byte) []byte {
	var req proto.DirOpRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	if err := s.FS.Rmdir(path); err != nil {
		code := errmap.FromError(errmap.CallRmdir, err)
		log.WithField("path", path).WithError(err).Debug("service: rmdir failed")
		return writeStatus(int8(code))
	}
	return writeStatus(0)
}

func handleDelete(s *Server, payload []byte) []byte {
	var req proto.DirOpRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	if err := s.FS.Unlink(path); err != nil {
		code := errmap.FromError(errmap.CallOther, err)
		log.WithField("path", path).WithError(err).Debug("service: delete failed")
		return writeStatus(int8(code))
	}
	return writeStatus(0)
}

func handleRename(s *Server, payload []byte) []byte {
	var req proto.RenameRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	oldPath, err := s.resolvePath(&req.PathOld, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	newPath, err := s.resolvePath(&req.PathNew, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}
	if err := s.FS.Rename(oldPath, newPath); err != nil {
		code := errmap.FromError(errmap.CallRename, err)
		log.WithFields(log.Fields{"old": oldPath, "new": newPath}).WithError(err).Debug("service: rename failed")
		return writeStatus(int8(code))
	}
	return writeStatus(0)
}

// handleChmod queries (Attr == 0xff) or sets the read-only attribute
// at path (spec.md §4.4 chmod). A query returns the current attribute
// byte in Res; a successful set returns the requested attribute byte.
// The path is stat'ed first in both cases, so a missing path fails
// before anything is changed.
func handleChmod(s *Server, payload []byte) []byte {
	var req proto.ChmodRequest
	if err := req.UnmarshalBinary(payload); err != nil {
		return writeStatus(int8(errmap.ILGPARM))
	}
	path, err := s.resolvePath(&req.Path, true)
	if err != nil {
		return writeStatus(int8(errmap.NODIR))
	}

	info, err := s.FS.Stat(path)
	if err != nil {
		code := errmap.FromError(errmap.CallOther, err)
		return writeStatus(int8(code))
	}
	res := int8(attrFor(info))

	if req.Attr != 0xff {
		readOnly := req.Attr&proto.AttrReadOnly != 0
		if err := s.FS.Chmod(path, readOnly); err != nil {
			code := errmap.FromError(errmap.CallOther, err)
			log.WithField("path", path).WithError(err).Debug("service: chmod failed")
			return writeStatus(int8(code))
		}
		res = int8(req.Attr)
	}
	return writeStatus(res)
}

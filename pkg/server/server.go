// Package server implements the service side of the protocol: one
// dispatch loop translating client requests into operations against a
// host filesystem (spec.md §4.4). The command table is a
// map[proto.Command]handlerFunc built once, mirroring GatewayServer.routes /
// addRoute in the teacher's HTTP gateway, rather than a switch
// statement.
package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/nozomi-fs/remotedrive/pkg/server/handles"
)

// handlerFunc processes one request payload (the full frame, command
// byte included) and returns the response payload to send. Codes in
// the reserved trivial range have no handler; Dispatch answers them
// with emptyAck itself.
type handlerFunc func(s *Server, payload []byte) []byte

// Server holds the host-side state shared by every request on one
// connection: the exported roots, the filesystem adapter, and the two
// handle tables (spec.md §4.5).
type Server struct {
	Roots [8]string
	FS    hostfs.FS

	files *handles.Files
	dirs  *handles.Dirs

	routes map[proto.Command]handlerFunc
}

// New constructs a Server exporting roots (indexed by the client's
// drive/unit byte) over fs, registering one route per command the same
// way the teacher's HTTPGatewayServer builds its command table with
// repeated addRoute calls (gateway_http_server.go).
func New(fs hostfs.FS, roots [8]string) *Server {
	s := &Server{
		Roots:  roots,
		FS:     fs,
		files:  handles.NewFiles(),
		dirs:   handles.NewDirs(),
		routes: make(map[proto.Command]handlerFunc),
	}
	s.addRoute(proto.CmdCheck, handleCheck)
	s.addRoute(proto.CmdChdir, handleChdir)
	s.addRoute(proto.CmdMkdir, handleMkdir)
	s.addRoute(proto.CmdRmdir, handleRmdir)
	s.addRoute(proto.CmdRename, handleRename)
	s.addRoute(proto.CmdDelete, handleDelete)
	s.addRoute(proto.CmdChmod, handleChmod)
	s.addRoute(proto.CmdFiles, handleFiles)
	s.addRoute(proto.CmdNFiles, handleNFiles)
	s.addRoute(proto.CmdCreate, handleCreate)
	s.addRoute(proto.CmdOpen, handleOpen)
	s.addRoute(proto.CmdClose, handleClose)
	s.addRoute(proto.CmdRead, handleRead)
	s.addRoute(proto.CmdWrite, handleWrite)
	s.addRoute(proto.CmdFiledate, handleFiledate)
	s.addRoute(proto.CmdDskfre, handleDskfre)
	return s
}

// addRoute registers (or overrides) the handler for cmd, the same way
// the teacher's GatewayServer exposes addRoute for its command table.
func (s *Server) addRoute(cmd proto.Command, fn handlerFunc) {
	s.routes[cmd] = fn
}

// emptyAck is the fixed zero-byte success response for the reserved
// trivial command range (spec.md §4.2, §4.4).
var emptyAck = []byte{}

// Dispatch handles one request frame and returns the response frame to
// write back, or nil when the code is outside the defined set and
// should be silently ignored (spec.md §4.4).
func (s *Server) Dispatch(payload []byte) []byte {
	if len(payload) == 0 {
		return nil
	}
	cmd := proto.Command(payload[0])

	if fn, ok := s.routes[cmd]; ok {
		return fn(s, payload)
	}
	if cmd >= proto.TrivialLow && cmd <= proto.TrivialHigh {
		log.WithField("cmd", cmd).Debug("service: trivial command acknowledged")
		return emptyAck
	}
	log.WithField("cmd", payload[0]).Warn("service: unrecognized command, ignoring")
	return nil
}

// rootFor resolves the exported root directory for a client's
// drive/unit byte (spec.md §4.6 "Root mapping"). ok is false if no
// root is configured for that unit.
func (s *Server) rootFor(drive byte) (string, bool) {
	if int(drive) >= len(s.Roots) {
		return "", false
	}
	root := s.Roots[drive]
	return root, root != ""
}

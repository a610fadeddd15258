// Command remoteservice is the service side of the protocol: it binds
// up to 8 host directories to drive/unit numbers and serves requests
// arriving over a serial link or TCP connection (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nozomi-fs/remotedrive/internal/serialport"
	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/server"
	"github.com/nozomi-fs/remotedrive/pkg/wire"
)

const defaultReadTimeout = 5 * time.Second

func main() {
	log.SetLevel(log.InfoLevel)

	flag.BoolFunc("D", "raise the log level; repeatable", func(string) error {
		raiseLevel()
		return nil
	})
	baudFlag := flag.Int("s", int(serialport.DefaultBaud), "serial baud rate")
	flag.Bool("v", false, "accepted for compatibility; has no effect")
	flag.Parse()

	baud := serialport.Baud(*baudFlag)
	if !baud.Valid() {
		fmt.Fprintf(os.Stderr, "remoteservice: unsupported baud rate %d\n", *baudFlag)
		usage()
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	device := args[0]
	rootArgs := args[1:]
	if len(rootArgs) > 8 {
		fmt.Fprintln(os.Stderr, "remoteservice: at most 8 root directories may be exported")
		os.Exit(1)
	}

	var roots [8]string
	for i, dir := range rootArgs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remoteservice: %v\n", err)
			os.Exit(1)
		}
		roots[i] = abs
	}

	transport, closeFn, err := openTransport(device, baud)
	if err != nil {
		log.WithError(err).Fatal("remoteservice: could not open transport")
	}
	defer closeFn()

	srv := server.New(hostfs.NewOSFilesystem(), roots)
	sess := wire.NewSession(transport, defaultReadTimeout)

	log.WithFields(log.Fields{"device": device, "baud": int(baud), "roots": rootArgs}).Info("remoteservice: serving")
	serve(sess, srv)
}

// serve runs the single-threaded request/response loop: one frame read
// and dispatched per iteration (spec.md §5 "at most one frame in
// flight in each direction").
func serve(sess *wire.Session, srv *server.Server) {
	buf := make([]byte, wire.MaxPayload)
	for {
		n, err := sess.ReadFrame(buf)
		if err != nil {
			log.WithError(err).Warn("remoteservice: frame read failed, entering recovery")
			sess.EnterRecovery()
			continue
		}
		resp := srv.Dispatch(buf[:n])
		if resp == nil {
			continue
		}
		if err := sess.WriteFrame(resp); err != nil {
			log.WithError(err).Warn("remoteservice: frame write failed, entering recovery")
			sess.EnterRecovery()
		}
	}
}

// openTransport opens device either as a real serial port (configured
// at baud) or, when device names a host:port pair, listens there and
// serves the first TCP connection accepted, for exercising the service
// without real hardware (cmd/driversim dials that address).
func openTransport(device string, baud serialport.Baud) (wire.Transport, func() error, error) {
	if strings.Contains(device, ":") {
		ln, err := net.Listen("tcp", device)
		if err != nil {
			return nil, nil, err
		}
		conn, err := ln.Accept()
		ln.Close()
		if err != nil {
			return nil, nil, err
		}
		return conn, conn.Close, nil
	}
	f, err := serialport.Open(device, baud)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func raiseLevel() {
	switch log.GetLevel() {
	case log.InfoLevel:
		log.SetLevel(log.DebugLevel)
	case log.DebugLevel:
		log.SetLevel(log.TraceLevel)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: remoteservice [-D]... [-s <baud>] [-v] <serial-device> [<root-directory>]...")
	fmt.Fprintf(os.Stderr, "  valid baud rates: %v\n", baudList())
}

func baudList() []int {
	out := make([]int, len(serialport.BaudRates))
	for i, b := range serialport.BaudRates {
		out[i] = int(b)
	}
	return out
}

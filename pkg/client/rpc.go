// Package client implements the driver-side dispatcher: it receives a
// request from the host OS's file-system shell, marshals it through
// pkg/proto, transacts one frame over pkg/wire, and applies the
// write-back data cache and directory-enumeration cache that keep
// most calls off the wire (spec.md §4.3). It mirrors the teacher's
// SDOClient, which likewise owns a request/response transfer state
// machine layered on top of a raw bus transport.
package client

import (
	"fmt"

	"github.com/nozomi-fs/remotedrive/pkg/wire"
)

// RPC issues one request payload and returns the matching response
// payload. Separating this from *wire.Session lets the cache and
// dispatch logic in this package be exercised against a fake
// transport in tests, without a real or simulated serial line.
type RPC interface {
	Call(payload []byte) ([]byte, error)
}

// SessionRPC is the production RPC, issuing requests over a
// *wire.Session and arming recovery mode on any frame-level failure,
// exactly as spec.md §4.1 requires of the driver.
type SessionRPC struct {
	Sess *wire.Session
}

func (r *SessionRPC) Call(payload []byte) ([]byte, error) {
	if err := r.Sess.WriteFrame(payload); err != nil {
		r.Sess.EnterRecovery()
		return nil, fmt.Errorf("client: write frame: %w", err)
	}
	buf := make([]byte, wire.MaxPayload)
	n, err := r.Sess.ReadFrame(buf)
	if err != nil {
		r.Sess.EnterRecovery()
		return nil, fmt.Errorf("client: read frame: %w", err)
	}
	return buf[:n], nil
}

// Package wire implements the byte-stuffed, synchronization-recovering
// frame layer that carries one request or one response per frame
// between the driver and the service.
package wire

import (
	"errors"
	"io"
	"time"
)

// DataBufferSize is the largest block of file data a frame carries:
// one full cache line.
const DataBufferSize = 1024

// MaxFrameOverhead is the largest fixed record header that accompanies
// a full data block: the write request's command byte, FCB, position
// and length (11 bytes).
const MaxFrameOverhead = 11

// MaxPayload is the largest payload length a frame may declare.
const MaxPayload = DataBufferSize + MaxFrameOverhead

// RecoveryFloodSize is how many 'Z' bytes a sender must emit before
// its next frame once the receiver has lost synchronization. It must
// be at least MaxPayload plus the frame header so that even a peer
// stuck reading a maximum-length payload is pushed back to the
// "scanning for 'Z'" state.
const RecoveryFloodSize = MaxPayload + 8

const (
	preambleByte byte = 'Z'
	terminatorHi byte = 'X'
)

// Sentinel transport errors. pkg/client's SessionRPC arms recovery mode
// on any of them and returns the error wrapped; no device-error code
// is produced.
var (
	ErrTimeout  = errors.New("wire: receive timed out")
	ErrFraming  = errors.New("wire: unexpected byte after preamble run")
	ErrOverrun  = errors.New("wire: frame payload exceeds buffer")
)

// deadliner is implemented by transports (net.Conn, *os.File opened on
// a serial device) that support per-call read/write deadlines. A
// transport lacking this interface (e.g. an io.Pipe used in tests)
// simply never times out on its own; the caller's context must bound
// it instead.
type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Transport is the byte-oriented, full-duplex stream a Session rides
// on top of: a real serial port, a net.Conn, or an in-memory pipe.
type Transport interface {
	io.Reader
	io.Writer
}

// Session frames reads and writes over one Transport. It is not safe
// for concurrent use: like the hardware interrupt handler and single
// event loop it models, at most one frame is ever in flight in each
// direction at a time (spec.md §5).
type Session struct {
	t         Transport
	timeout   time.Duration
	recovering bool
}

// NewSession wraps t. timeout bounds ReadFrame when t supports
// deadlines; zero means no deadline is applied (the caller is relying
// on the transport itself, e.g. an io.Pipe torn down by its owner).
func NewSession(t Transport, timeout time.Duration) *Session {
	return &Session{t: t, timeout: timeout}
}

// Recovering reports whether the next WriteFrame will first emit the
// resynchronization flood.
func (s *Session) Recovering() bool { return s.recovering }

// EnterRecovery arms the flood-before-next-write behavior. Called by
// the dispatcher whenever ReadFrame fails.
func (s *Session) EnterRecovery() { s.recovering = true }

// ReadFrame reads one frame into buf, returning the number of payload
// bytes read. buf must be at least MaxPayload bytes or a legitimately
// large payload could itself trigger ErrOverrun.
func (s *Session) ReadFrame(buf []byte) (int, error) {
	s.setReadDeadline()

	one := make([]byte, 1)

	// 1. Discard anything before the first 'Z'.
	for {
		n, err := io.ReadFull(s.t, one)
		if err != nil || n == 0 {
			return 0, s.readErr(err)
		}
		if one[0] == preambleByte {
			break
		}
	}

	// 2. Absorb the run of 'Z' bytes; the first non-'Z' must be 'X'.
	for {
		n, err := io.ReadFull(s.t, one)
		if err != nil || n == 0 {
			return 0, s.readErr(err)
		}
		if one[0] == preambleByte {
			continue
		}
		if one[0] != terminatorHi {
			return 0, ErrFraming
		}
		break
	}

	// 3. Two-byte big-endian length.
	var lenBuf [2]byte
	if _, err := io.ReadFull(s.t, lenBuf[:]); err != nil {
		return 0, s.readErr(err)
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1])

	// 4. Bounds check against the caller's buffer.
	if length > len(buf) {
		return 0, ErrOverrun
	}

	// 5. Exactly length bytes of payload.
	if length == 0 {
		return 0, nil
	}
	if _, err := io.ReadFull(s.t, buf[:length]); err != nil {
		return 0, s.readErr(err)
	}
	return length, nil
}

// readErr normalizes a read failure. A real timeout surfaces as
// ErrTimeout; anything else (EOF, closed transport) also counts as a
// desync from the protocol's point of view and is reported the same
// way so the dispatcher always has exactly one of three kinds of
// error to react to.
func (s *Session) readErr(err error) error {
	if err == nil {
		return ErrTimeout
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTimeout
	}
	return ErrTimeout
}

func (s *Session) setReadDeadline() {
	if s.timeout <= 0 {
		return
	}
	if d, ok := s.t.(deadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(s.timeout))
	}
}

// WriteFrame sends payload as exactly one frame. If recovery mode is
// armed, a flood of RecoveryFloodSize 'Z' bytes is written first,
// draining whatever the peer happens to be sending back concurrently,
// so a peer mid-frame is forced back to its "scanning for 'Z'" state.
func (s *Session) WriteFrame(payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrOverrun
	}
	if s.recovering {
		if err := s.flood(); err != nil {
			return err
		}
		s.recovering = false
	}

	header := make([]byte, 0, 5+len(payload))
	header = append(header, preambleByte, preambleByte, terminatorHi)
	header = append(header, byte(len(payload)>>8), byte(len(payload)))
	header = append(header, payload...)
	_, err := s.t.Write(header)
	return err
}

// flood writes the resynchronization preamble while draining any
// bytes the peer sends back in the meantime, so a half-duplex-style
// peer blocked writing its own frame never stalls against our flood.
func (s *Session) flood() error {
	flood := make([]byte, RecoveryFloodSize)
	for i := range flood {
		flood[i] = preambleByte
	}

	done := make(chan struct{})
	drain := make(chan struct{})
	go func() {
		defer close(drain)
		discard := make([]byte, 256)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := tryRead(s.t, discard)
			if n == 0 && err != nil {
				if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
					continue
				}
				return
			}
		}
	}()

	_, err := s.t.Write(flood)
	close(done)
	<-drain
	return err
}

// tryRead performs one non-blocking-ish best-effort read used only to
// drain the line during the recovery flood; a transport without a
// deadline may block here until the peer stops sending, which is
// acceptable since the flood write itself is what bounds this phase.
func tryRead(t Transport, buf []byte) (int, error) {
	if d, ok := t.(deadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	}
	n, err := t.Read(buf)
	if d, ok := t.(deadliner); ok {
		_ = d.SetReadDeadline(time.Time{})
	}
	return n, err
}

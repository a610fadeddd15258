package client

import (
	"fmt"

	"github.com/nozomi-fs/remotedrive/pkg/proto"
)

// Create opens a brand-new file (spec.md §4.2 0x49), initializing the
// FCB's size to 0 (spec.md §4.3 "create / open").
func (c *Client) Create(fcb *FCB, path proto.NameBuf, attr, mode byte) error {
	resp, err := c.call(&proto.CreateRequest{Attr: attr, Mode: mode, FCB: fcb.Pointer, Path: path})
	if err != nil {
		return err
	}
	var or proto.OpenResponse
	if err := or.UnmarshalBinary(resp); err != nil {
		return err
	}
	if or.Res < 0 {
		return statusErr(or.Res)
	}
	fcb.Mode = mode
	fcb.Position = 0
	fcb.Size = 0
	fcb.Reset()
	return nil
}

// Open opens an existing file, initializing the FCB's size to the
// size the server reports (spec.md §4.3 "create / open").
func (c *Client) Open(fcb *FCB, path proto.NameBuf, mode byte) error {
	resp, err := c.call(&proto.OpenRequest{Mode: mode, FCB: fcb.Pointer, Path: path})
	if err != nil {
		return err
	}
	var or proto.OpenResponse
	if err := or.UnmarshalBinary(resp); err != nil {
		return err
	}
	if or.Res < 0 {
		return statusErr(or.Res)
	}
	fcb.Mode = mode
	fcb.Position = 0
	fcb.Size = or.Size
	fcb.Reset()
	return nil
}

// Close flushes and invalidates the FCB's cache line, then sends the
// close command (spec.md §4.3 "close").
func (c *Client) Close(fcb *FCB) error {
	if err := c.flushLine(fcb); err != nil {
		return err
	}
	resp, err := c.call(&proto.CloseRequest{FCB: fcb.Pointer})
	if err != nil {
		return err
	}
	fcb.line = nil
	var sr proto.StatusResponse
	if err := sr.UnmarshalBinary(resp); err != nil {
		return err
	}
	return statusErr(sr.Res)
}

// flushLine writes back fcb's cache line if dirty, clearing the dirty
// flag on success. A clean or absent line is a no-op.
func (c *Client) flushLine(fcb *FCB) error {
	if fcb.line == nil || !fcb.line.dirty {
		return nil
	}
	if _, err := c.serverWrite(fcb, fcb.line.start, fcb.line.data); err != nil {
		return err
	}
	fcb.line.dirty = false
	return nil
}

func (c *Client) serverWrite(fcb *FCB, pos uint32, data []byte) (int, error) {
	resp, err := c.call(&proto.WriteRequest{FCB: fcb.Pointer, Pos: pos, Len: uint16(len(data)), Data: data})
	if err != nil {
		return 0, err
	}
	var wr proto.WriteResponse
	if err := wr.UnmarshalBinary(resp); err != nil {
		return 0, err
	}
	if wr.Len < 0 {
		return 0, statusErr(int8(wr.Len))
	}
	return int(wr.Len), nil
}

func (c *Client) serverRead(fcb *FCB, pos uint32, length uint16) ([]byte, error) {
	resp, err := c.call(&proto.ReadRequest{FCB: fcb.Pointer, Pos: pos, Len: length})
	if err != nil {
		return nil, err
	}
	var rr proto.ReadResponse
	if err := rr.UnmarshalBinary(resp); err != nil {
		return nil, err
	}
	if rr.Len < 0 {
		return nil, statusErr(int8(rr.Len))
	}
	return rr.Data, nil
}

// Read fills buf from fcb's current position, advancing it by the
// number of bytes actually read (spec.md §4.3 "read"): it flushes any
// dirty line first, then alternates between cache hits, cache
// refills for small remaining lengths, and direct server reads that
// bypass the cache entirely for remaining lengths of a full cache
// line or more.
func (c *Client) Read(fcb *FCB, buf []byte) (int, error) {
	if err := c.flushLine(fcb); err != nil {
		return 0, err
	}

	total := 0
	for total < len(buf) {
		remaining := buf[total:]

		if fcb.line.covers(fcb.Position) {
			n := fcb.line.copyOut(fcb.Position, remaining)
			total += n
			fcb.Position += uint32(n)
			continue
		}

		if len(remaining) < CacheLineSize {
			data, err := c.serverRead(fcb, fcb.Position, CacheLineSize)
			if err != nil {
				return total, err
			}
			if len(data) == 0 {
				return total, nil
			}
			fcb.line = &cacheLine{start: fcb.Position, data: data}
			continue
		}

		data, err := c.serverRead(fcb, fcb.Position, CacheLineSize)
		if err != nil {
			return total, err
		}
		n := copy(remaining, data)
		total += n
		fcb.Position += uint32(n)
		if n < CacheLineSize {
			return total, nil
		}
	}
	return total, nil
}

// Write writes data at fcb's current position, advancing it and
// growing Size as needed (spec.md §4.3 "write"). A zero-length write
// truncates the file to the current position instead.
func (c *Client) Write(fcb *FCB, data []byte) (int, error) {
	if len(data) == 0 {
		if err := c.flushLine(fcb); err != nil {
			return 0, err
		}
		if _, err := c.serverWrite(fcb, fcb.Position, nil); err != nil {
			return 0, err
		}
		fcb.Size = fcb.Position
		fcb.line = nil
		return 0, nil
	}

	if len(data) < CacheLineSize {
		if fcb.line.canCoalesce(fcb.Position, len(data)) {
			fcb.line.append(data)
		} else {
			if err := c.flushLine(fcb); err != nil {
				return 0, err
			}
			fcb.line = &cacheLine{start: fcb.Position, data: append([]byte(nil), data...), dirty: true}
		}
		fcb.Position += uint32(len(data))
		if fcb.Position > fcb.Size {
			fcb.Size = fcb.Position
		}
		return len(data), nil
	}

	if err := c.flushLine(fcb); err != nil {
		return 0, err
	}
	n, err := c.serverWrite(fcb, fcb.Position, data)
	fcb.Position += uint32(n)
	if fcb.Position > fcb.Size {
		fcb.Size = fcb.Position
	}
	return n, err
}

// Seek is computed entirely locally against the FCB's position and
// size (spec.md §4.3 "seek"), after flushing any dirty cache line.
func (c *Client) Seek(fcb *FCB, whence byte, offset int32) error {
	if err := c.flushLine(fcb); err != nil {
		return err
	}

	var newPos int64
	switch whence {
	case 0:
		newPos = int64(offset)
	case 1:
		newPos = int64(fcb.Position) + int64(offset)
	case 2:
		newPos = int64(fcb.Size) + int64(offset)
	default:
		return fmt.Errorf("client: invalid seek whence %d", whence)
	}

	if newPos < 0 || newPos > int64(fcb.Size) {
		return ErrCantSeek
	}
	fcb.Position = uint32(newPos)
	return nil
}

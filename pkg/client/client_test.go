package client

import (
	"testing"

	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal in-process stand-in for the wire-level
// service, letting these tests exercise the driver's cache and
// dispatch logic without a real or simulated serial line (mirrors the
// teacher's pattern of testing SDO transfer logic against a virtual
// bus rather than real CAN hardware).
type fakeServer struct {
	data        []byte
	writeCalls  int
	readCalls   int
	dirEntries  []proto.FilesResponse
	dirCursor   int
}

func (s *fakeServer) Call(payload []byte) ([]byte, error) {
	cmd := proto.Command(payload[0])
	switch cmd {
	case proto.CmdCreate:
		s.data = nil
		resp := &proto.OpenResponse{Res: 0, Size: 0}
		b, _ := resp.MarshalBinary()
		return b, nil

	case proto.CmdOpen:
		resp := &proto.OpenResponse{Res: 0, Size: uint32(len(s.data))}
		b, _ := resp.MarshalBinary()
		return b, nil

	case proto.CmdRead:
		var req proto.ReadRequest
		if err := req.UnmarshalBinary(payload); err != nil {
			return nil, err
		}
		s.readCalls++
		var out []byte
		if int(req.Pos) < len(s.data) {
			end := int(req.Pos) + int(req.Len)
			if end > len(s.data) {
				end = len(s.data)
			}
			out = s.data[req.Pos:end]
		}
		resp := &proto.ReadResponse{Len: int16(len(out)), Data: out}
		b, _ := resp.MarshalBinary()
		return b, nil

	case proto.CmdWrite:
		var req proto.WriteRequest
		if err := req.UnmarshalBinary(payload); err != nil {
			return nil, err
		}
		s.writeCalls++
		if req.Len == 0 {
			if int(req.Pos) < len(s.data) {
				s.data = s.data[:req.Pos]
			}
			resp := &proto.WriteResponse{Len: 0}
			b, _ := resp.MarshalBinary()
			return b, nil
		}
		end := int(req.Pos) + len(req.Data)
		if end > len(s.data) {
			grown := make([]byte, end)
			copy(grown, s.data)
			s.data = grown
		}
		copy(s.data[req.Pos:end], req.Data)
		resp := &proto.WriteResponse{Len: int16(len(req.Data))}
		b, _ := resp.MarshalBinary()
		return b, nil

	case proto.CmdClose:
		resp := &proto.StatusResponse{Res: 0}
		b, _ := resp.MarshalBinary()
		return b, nil

	case proto.CmdFiles:
		s.dirCursor = 0
		return s.nextDirResponse()

	case proto.CmdNFiles:
		return s.nextDirResponse()
	}
	panic("fakeServer: unhandled command")
}

func (s *fakeServer) nextDirResponse() ([]byte, error) {
	if s.dirCursor >= len(s.dirEntries) {
		resp := &proto.FilesResponse{Res: -18} // NOMORE
		return mustMarshal(resp), nil
	}
	entry := s.dirEntries[s.dirCursor]
	s.dirCursor++
	return mustMarshal(&entry), nil
}

func mustMarshal(m interface{ MarshalBinary() ([]byte, error) }) []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func TestWriteCoalescesSmallWritesIntoOneFlush(t *testing.T) {
	srv := &fakeServer{}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Create(fcb, proto.NameBuf{}, 0x20, 1))

	n, err := c.Write(fcb, []byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = c.Write(fcb, []byte("world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, 0, srv.writeCalls, "coalesced writes must not hit the wire yet")
	require.NoError(t, c.Close(fcb))
	assert.Equal(t, 1, srv.writeCalls, "close must flush exactly one coalesced write")
	assert.Equal(t, "hello world", string(srv.data))
}

func TestWriteNonContiguousFlushesAndStartsNewLine(t *testing.T) {
	srv := &fakeServer{}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Create(fcb, proto.NameBuf{}, 0x20, 1))

	_, err := c.Write(fcb, []byte("AAAA"))
	require.NoError(t, err)
	require.NoError(t, c.Seek(fcb, 0, 0))
	_, err = c.Write(fcb, []byte("BBBB"))
	require.NoError(t, err)

	assert.Equal(t, 1, srv.writeCalls, "the jump back to offset 0 must flush the first line")
	require.NoError(t, c.Close(fcb))
	assert.Equal(t, "BBBB", string(srv.data))
}

func TestZeroLengthWriteTruncates(t *testing.T) {
	srv := &fakeServer{data: []byte("0123456789")}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Open(fcb, proto.NameBuf{}, 1))

	require.NoError(t, c.Seek(fcb, 0, 5))
	n, err := c.Write(fcb, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint32(5), fcb.Size)
	assert.Equal(t, "01234", string(srv.data))
}

func TestReadCacheHitAvoidsSecondRoundTrip(t *testing.T) {
	srv := &fakeServer{data: []byte("hello world")}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Open(fcb, proto.NameBuf{}, 0))

	buf := make([]byte, 5)
	n, err := c.Read(fcb, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
	assert.Equal(t, 1, srv.readCalls)

	buf2 := make([]byte, 6)
	n, err = c.Read(fcb, buf2)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, " world", string(buf2))
	assert.Equal(t, 1, srv.readCalls, "second read should be served from the cache line")
}

func TestReadDirectBypassForFullLineRequests(t *testing.T) {
	big := make([]byte, CacheLineSize*2+10)
	for i := range big {
		big[i] = byte(i)
	}
	srv := &fakeServer{data: big}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Open(fcb, proto.NameBuf{}, 0))

	buf := make([]byte, len(big))
	n, err := c.Read(fcb, buf)
	require.NoError(t, err)
	assert.Equal(t, len(big), n)
	assert.Equal(t, big, buf)
}

func TestSeekBeyondSizeFails(t *testing.T) {
	srv := &fakeServer{data: []byte("12345")}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Open(fcb, proto.NameBuf{}, 0))

	err := c.Seek(fcb, 0, 100)
	assert.ErrorIs(t, err, ErrCantSeek)
	assert.Equal(t, uint32(0), fcb.Position, "failed seek must not move the position")
}

func TestSeekWhenceVariants(t *testing.T) {
	srv := &fakeServer{data: []byte("0123456789")}
	c := New(srv)
	fcb := &FCB{Pointer: 1}
	require.NoError(t, c.Open(fcb, proto.NameBuf{}, 0))

	require.NoError(t, c.Seek(fcb, 0, 4))
	assert.Equal(t, uint32(4), fcb.Position)

	require.NoError(t, c.Seek(fcb, 1, 2))
	assert.Equal(t, uint32(6), fcb.Position)

	require.NoError(t, c.Seek(fcb, 2, 0))
	assert.Equal(t, uint32(10), fcb.Position)
}

func TestFilesNFilesDrainsLocalBatchBeforeHittingWire(t *testing.T) {
	mkEntry := func(name string) proto.FilesResponse {
		var fi proto.FileInfo
		fi.SetName([]byte(name))
		return proto.FilesResponse{Res: 0, File: fi}
	}
	srv := &fakeServer{dirEntries: []proto.FilesResponse{
		mkEntry("A.TXT"), mkEntry("B.TXT"), mkEntry("C.TXT"),
	}}
	c := New(srv)
	dir := &Dir{Pointer: 9}

	first, err := c.Files(dir, proto.NameBuf{}, 0x20)
	require.NoError(t, err)
	callsAfterFiles := srv.dirCursor
	assert.True(t, callsAfterFiles >= 3, "Files should have prefetched the remaining entries")

	names := []string{nameOf(first)}
	for i := 0; i < 2; i++ {
		fi, err := c.NFiles(dir)
		require.NoError(t, err)
		names = append(names, nameOf(fi))
	}
	assert.Equal(t, []string{"A.TXT", "B.TXT", "C.TXT"}, names)
	assert.Equal(t, callsAfterFiles, srv.dirCursor, "draining the batch must not touch the wire again")

	_, err = c.NFiles(dir)
	assert.Error(t, err, "exhausted enumeration must finally go back to the wire and report NOMORE")
}

func nameOf(fi *proto.FileInfo) string {
	n := 0
	for n < len(fi.Name) && fi.Name[n] != 0 {
		n++
	}
	return string(fi.Name[:n])
}

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
	"github.com/nozomi-fs/remotedrive/pkg/server/errmap"
)

func openResp(t *testing.T, resp []byte) proto.OpenResponse {
	t.Helper()
	var r proto.OpenResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r
}

func TestCreateExclusiveRejectsExistingFile(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("x"), false)

	req := &proto.CreateRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "A.TXT", "")}
	r := openResp(t, s.Dispatch(mustMarshal(req)))
	assert.EqualValues(t, errmap.EXISTFILE, r.Res)
}

func TestCreateNonExclusiveTruncatesExistingFile(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("old contents"), false)

	req := &proto.CreateRequest{Mode: 1, FCB: 1, Path: nameBuf(0, nil, "A.TXT", "")}
	r := openResp(t, s.Dispatch(mustMarshal(req)))
	require.EqualValues(t, 0, r.Res)

	info, err := fs.Stat(p("/A.TXT"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.Size)
}

func TestCreateNewFileThenOpenModes(t *testing.T) {
	s, _ := newTestServer()
	create := &proto.CreateRequest{Mode: 0, FCB: 10, Path: nameBuf(0, nil, "NEW.TXT", "")}
	r := openResp(t, s.Dispatch(mustMarshal(create)))
	require.EqualValues(t, 0, r.Res)

	open := &proto.OpenRequest{Mode: 5, FCB: 11, Path: nameBuf(0, nil, "NEW.TXT", "")}
	r2 := openResp(t, s.Dispatch(mustMarshal(open)))
	assert.EqualValues(t, errmap.ILGARG, r2.Res)
}

func TestOpenReportsSize(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/HELLO.TXT"), []byte("HELLO"), false)

	req := &proto.OpenRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "HELLO", "TXT")}
	r := openResp(t, s.Dispatch(mustMarshal(req)))
	require.EqualValues(t, 0, r.Res)
	assert.EqualValues(t, 5, r.Size)
}

func TestOpenMissingFileReportsNOENT(t *testing.T) {
	s, _ := newTestServer()
	req := &proto.OpenRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "GONE.TXT", "")}
	r := openResp(t, s.Dispatch(mustMarshal(req)))
	assert.EqualValues(t, errmap.NOENT, r.Res)
}

func closeResp(t *testing.T, resp []byte) int8 {
	t.Helper()
	var r proto.StatusResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r.Res
}

func TestCloseReleasesHandleAndRejectsUnknownFCB(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("hi"), false)
	open := &proto.OpenRequest{Mode: 0, FCB: 7, Path: nameBuf(0, nil, "A.TXT", "")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open))).Res)

	assert.EqualValues(t, 0, closeResp(t, s.Dispatch(mustMarshal(&proto.CloseRequest{FCB: 7}))))
	assert.EqualValues(t, errmap.BADF, closeResp(t, s.Dispatch(mustMarshal(&proto.CloseRequest{FCB: 7}))))
}

func readResp(t *testing.T, resp []byte) proto.ReadResponse {
	t.Helper()
	var r proto.ReadResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r
}

func writeResp(t *testing.T, resp []byte) int16 {
	t.Helper()
	var r proto.WriteResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r.Len
}

// TestOpenReadClose covers spec.md §8 scenario 1: open, a single read
// of the whole file, close.
func TestOpenReadClose(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/HELLO.TXT"), []byte("HELLO"), false)

	open := &proto.OpenRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "HELLO", "TXT")}
	r := openResp(t, s.Dispatch(mustMarshal(open)))
	require.EqualValues(t, 0, r.Res)
	require.EqualValues(t, 5, r.Size)

	read := &proto.ReadRequest{FCB: 1, Pos: 0, Len: 5}
	rr := readResp(t, s.Dispatch(mustMarshal(read)))
	require.EqualValues(t, 5, rr.Len)
	assert.Equal(t, "HELLO", string(rr.Data))

	assert.EqualValues(t, 0, closeResp(t, s.Dispatch(mustMarshal(&proto.CloseRequest{FCB: 1}))))
}

// TestWriteThenReadBack covers spec.md §8 scenario 2's server-visible
// half: write at offset 0, then a fresh open+read observes the new
// content.
func TestWriteThenReadBack(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/HELLO.TXT"), []byte("HELLO"), false)

	open := &proto.OpenRequest{Mode: 2, FCB: 1, Path: nameBuf(0, nil, "HELLO", "TXT")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open))).Res)

	write := &proto.WriteRequest{FCB: 1, Pos: 0, Len: 5, Data: []byte("WORLD")}
	assert.EqualValues(t, 5, writeResp(t, s.Dispatch(mustMarshal(write))))
	assert.EqualValues(t, 0, closeResp(t, s.Dispatch(mustMarshal(&proto.CloseRequest{FCB: 1}))))

	open2 := &proto.OpenRequest{Mode: 0, FCB: 2, Path: nameBuf(0, nil, "HELLO", "TXT")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open2))).Res)
	read := &proto.ReadRequest{FCB: 2, Pos: 0, Len: 5}
	rr := readResp(t, s.Dispatch(mustMarshal(read)))
	assert.Equal(t, "WORLD", string(rr.Data))
}

func TestReadUnknownFCBReportsBADF(t *testing.T) {
	s, _ := newTestServer()
	rr := readResp(t, s.Dispatch(mustMarshal(&proto.ReadRequest{FCB: 99, Pos: 0, Len: 1})))
	assert.EqualValues(t, errmap.BADF, rr.Len)
}

func TestReadPastEndOfFileReturnsZero(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("abc"), false)
	open := &proto.OpenRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "A.TXT", "")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open))).Res)

	rr := readResp(t, s.Dispatch(mustMarshal(&proto.ReadRequest{FCB: 1, Pos: 10, Len: 5})))
	assert.EqualValues(t, 0, rr.Len)
}

// TestWriteZeroLengthTruncates covers spec.md §8 "Write of length 0
// sets the file size to the current position."
func TestWriteZeroLengthTruncates(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("HELLO WORLD"), false)
	open := &proto.OpenRequest{Mode: 2, FCB: 1, Path: nameBuf(0, nil, "A.TXT", "")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open))).Res)

	write := &proto.WriteRequest{FCB: 1, Pos: 5, Len: 0}
	assert.EqualValues(t, 0, writeResp(t, s.Dispatch(mustMarshal(write))))

	info, err := fs.Stat(p("/A.TXT"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, info.Size)
}

func filedateResp(t *testing.T, resp []byte) proto.FiledateResponse {
	t.Helper()
	var r proto.FiledateResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r
}

func TestFiledateQueryThenSet(t *testing.T) {
	s, fs := newTestServer()
	fs.PutFile(p("/A.TXT"), []byte("x"), false)
	open := &proto.OpenRequest{Mode: 0, FCB: 1, Path: nameBuf(0, nil, "A.TXT", "")}
	require.EqualValues(t, 0, openResp(t, s.Dispatch(mustMarshal(open))).Res)

	query := filedateResp(t, s.Dispatch(mustMarshal(&proto.FiledateRequest{FCB: 1})))
	assert.NotZero(t, query.Date)

	set := filedateResp(t, s.Dispatch(mustMarshal(&proto.FiledateRequest{FCB: 1, Time: 0x1234, Date: 0x5678})))
	assert.EqualValues(t, 0, set.Time)
	assert.EqualValues(t, 0, set.Date)

	requery := filedateResp(t, s.Dispatch(mustMarshal(&proto.FiledateRequest{FCB: 1})))
	assert.EqualValues(t, 0x1234, requery.Time)
	assert.EqualValues(t, 0x5678, requery.Date)
}

func TestFiledateUnknownFCBReportsBADF(t *testing.T) {
	s, _ := newTestServer()
	r := filedateResp(t, s.Dispatch(mustMarshal(&proto.FiledateRequest{FCB: 5})))
	assert.EqualValues(t, errmap.BADF, r.Time)
	assert.EqualValues(t, 0xffff, r.Date)
}

func dskfreResp(t *testing.T, resp []byte) proto.DskfreResponse {
	t.Helper()
	var r proto.DskfreResponse
	require.NoError(t, r.UnmarshalBinary(resp))
	return r
}

func TestDskfreReportsPrimaryRoot(t *testing.T) {
	s, _ := newTestServer()
	r := dskfreResp(t, s.Dispatch(mustMarshal(&proto.DskfreRequest{})))
	assert.Greater(t, r.Res, int32(0))
	assert.EqualValues(t, dskfreSectorsPerCluster, r.SectPerClu)
	assert.EqualValues(t, dskfreSectorSize, r.SectorSize)
}

func TestDskfreWithNoRootConfigured(t *testing.T) {
	s := New(hostfs.NewMemFS(), [8]string{})
	r := dskfreResp(t, s.Dispatch(mustMarshal(&proto.DskfreRequest{})))
	assert.EqualValues(t, -1, r.Res)
}

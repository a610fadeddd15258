package proto

// File-info attribute bits (spec.md §3 "File-info record").
const (
	AttrReadOnly byte = 0x01
	AttrVolume   byte = 0x08
	AttrDir      byte = 0x10
	AttrRegular  byte = 0x20
)

// FileInfoSize is the fixed wire size of a FileInfo record.
const FileInfoSize = 1 + 1 + 2 + 2 + 4 + 23

// FileInfo is the 33-byte directory-entry record returned by files
// and nfiles.
type FileInfo struct {
	Attr   byte
	Time   uint16 // hour<<11 | min<<5 | sec/2
	Date   uint16 // (year-1980)<<9 | month<<5 | day
	Length uint32
	Name   [23]byte // NUL-terminated Shift-JIS
}

// MarshalBinary writes the 33 on-wire bytes, including the leading
// dummy byte the client's record shape reserves.
func (f *FileInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FileInfoSize)
	buf[0] = 0
	buf[1] = f.Attr
	putBE16(buf[2:4], f.Time)
	putBE16(buf[4:6], f.Date)
	putBE32(buf[6:10], f.Length)
	copy(buf[10:33], f.Name[:])
	return buf, nil
}

// UnmarshalBinary reads a 33-byte record.
func (f *FileInfo) UnmarshalBinary(data []byte) error {
	if len(data) < FileInfoSize {
		return ErrShortRecord
	}
	f.Attr = data[1]
	f.Time = be16(data[2:4])
	f.Date = be16(data[4:6])
	f.Length = be32(data[6:10])
	copy(f.Name[:], data[10:33])
	return nil
}

// SetName copies a NUL-terminated (or shorter) Shift-JIS name into the
// 23-byte field, truncating silently if it doesn't fit — callers are
// expected to have already rejected names that are too long.
func (f *FileInfo) SetName(name []byte) {
	n := len(name)
	if n > len(f.Name)-1 {
		n = len(f.Name) - 1
	}
	var buf [23]byte
	copy(buf[:n], name[:n])
	f.Name = buf
}

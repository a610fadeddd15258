package proto

// NameBuf is the client's 88-byte canonicalized path plus 8.3
// decomposition, bit-identical to what the client OS builds for every
// path-bearing request (spec.md §3 "Name buffer").
type NameBuf struct {
	Flag  byte
	Drive byte
	Path  [65]byte // 0x09-separated components, NUL terminated
	Name1 [8]byte  // primary name part 1, space padded
	Ext   [3]byte  // extension, space padded
	Name2 [10]byte // primary name part 2, NUL padded
}

// NameBufSize is the wire size of NameBuf.
const NameBufSize = 1 + 1 + 65 + 8 + 3 + 10

// MarshalBinary writes the 88 on-wire bytes.
func (n *NameBuf) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, NameBufSize)
	buf = append(buf, n.Flag, n.Drive)
	buf = append(buf, n.Path[:]...)
	buf = append(buf, n.Name1[:]...)
	buf = append(buf, n.Ext[:]...)
	buf = append(buf, n.Name2[:]...)
	return buf, nil
}

// UnmarshalBinary accepts all 88 bytes bit-identically.
func (n *NameBuf) UnmarshalBinary(data []byte) error {
	if len(data) != NameBufSize {
		return ErrShortRecord
	}
	n.Flag = data[0]
	n.Drive = data[1]
	copy(n.Path[:], data[2:67])
	copy(n.Name1[:], data[67:75])
	copy(n.Ext[:], data[75:78])
	copy(n.Name2[:], data[78:88])
	return nil
}

// IsRoot reports whether the path component is empty, i.e. the
// client addressed the exported root directory itself (the on-wire
// path is a single directory-separator byte, 0x09).
func (n *NameBuf) IsRoot() bool {
	return n.Path[0] == 0x09 && (len(n.Path) == 1 || n.Path[1] == 0x00)
}

package proto

// Request records. Each carries its own Command byte on the wire as
// byte 0, mirroring the client's cmd_* structures.

type CheckRequest struct{}

func (r *CheckRequest) MarshalBinary() ([]byte, error) { return []byte{byte(CmdCheck)}, nil }

// DirOpRequest backs chdir, mkdir, rmdir and delete: a single path.
type DirOpRequest struct {
	Cmd  Command
	Path NameBuf
}

func (r *DirOpRequest) MarshalBinary() ([]byte, error) {
	p, _ := r.Path.MarshalBinary()
	return append([]byte{byte(r.Cmd)}, p...), nil
}

func (r *DirOpRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 1+NameBufSize {
		return ErrShortRecord
	}
	r.Cmd = Command(data[0])
	return r.Path.UnmarshalBinary(data[1 : 1+NameBufSize])
}

type RenameRequest struct {
	PathOld NameBuf
	PathNew NameBuf
}

func (r *RenameRequest) MarshalBinary() ([]byte, error) {
	o, _ := r.PathOld.MarshalBinary()
	n, _ := r.PathNew.MarshalBinary()
	buf := append([]byte{byte(CmdRename)}, o...)
	return append(buf, n...), nil
}

func (r *RenameRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 1+2*NameBufSize {
		return ErrShortRecord
	}
	if err := r.PathOld.UnmarshalBinary(data[1 : 1+NameBufSize]); err != nil {
		return err
	}
	return r.PathNew.UnmarshalBinary(data[1+NameBufSize : 1+2*NameBufSize])
}

type ChmodRequest struct {
	Attr byte // 0xff means "query only, don't set"
	Path NameBuf
}

func (r *ChmodRequest) MarshalBinary() ([]byte, error) {
	p, _ := r.Path.MarshalBinary()
	return append([]byte{byte(CmdChmod), r.Attr}, p...), nil
}

func (r *ChmodRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 2+NameBufSize {
		return ErrShortRecord
	}
	r.Attr = data[1]
	return r.Path.UnmarshalBinary(data[2 : 2+NameBufSize])
}

type FilesRequest struct {
	Attr  byte
	FileP uint32
	Path  NameBuf
}

func (r *FilesRequest) MarshalBinary() ([]byte, error) {
	p, _ := r.Path.MarshalBinary()
	buf := make([]byte, 0, 6+NameBufSize)
	buf = append(buf, byte(CmdFiles), r.Attr, 0, 0, 0, 0)
	putBE32(buf[2:6], r.FileP)
	return append(buf, p...), nil
}

func (r *FilesRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 6+NameBufSize {
		return ErrShortRecord
	}
	r.Attr = data[1]
	r.FileP = be32(data[2:6])
	return r.Path.UnmarshalBinary(data[6 : 6+NameBufSize])
}

type NFilesRequest struct {
	FileP uint32
}

func (r *NFilesRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 5)
	buf[0] = byte(CmdNFiles)
	putBE32(buf[1:5], r.FileP)
	return buf, nil
}

func (r *NFilesRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return ErrShortRecord
	}
	r.FileP = be32(data[1:5])
	return nil
}

type CreateRequest struct {
	Attr byte
	Mode byte
	FCB  uint32
	Path NameBuf
}

func (r *CreateRequest) MarshalBinary() ([]byte, error) {
	p, _ := r.Path.MarshalBinary()
	buf := make([]byte, 0, 7+NameBufSize)
	buf = append(buf, byte(CmdCreate), r.Attr, r.Mode, 0, 0, 0, 0)
	putBE32(buf[3:7], r.FCB)
	return append(buf, p...), nil
}

func (r *CreateRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 7+NameBufSize {
		return ErrShortRecord
	}
	r.Attr = data[1]
	r.Mode = data[2]
	r.FCB = be32(data[3:7])
	return r.Path.UnmarshalBinary(data[7 : 7+NameBufSize])
}

type OpenRequest struct {
	Mode byte
	FCB  uint32
	Path NameBuf
}

func (r *OpenRequest) MarshalBinary() ([]byte, error) {
	p, _ := r.Path.MarshalBinary()
	buf := make([]byte, 0, 6+NameBufSize)
	buf = append(buf, byte(CmdOpen), r.Mode, 0, 0, 0, 0)
	putBE32(buf[2:6], r.FCB)
	return append(buf, p...), nil
}

func (r *OpenRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 6+NameBufSize {
		return ErrShortRecord
	}
	r.Mode = data[1]
	r.FCB = be32(data[2:6])
	return r.Path.UnmarshalBinary(data[6 : 6+NameBufSize])
}

type CloseRequest struct {
	FCB uint32
}

func (r *CloseRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 5)
	buf[0] = byte(CmdClose)
	putBE32(buf[1:5], r.FCB)
	return buf, nil
}

func (r *CloseRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return ErrShortRecord
	}
	r.FCB = be32(data[1:5])
	return nil
}

// ReadRequest and WriteRequest address the file at an absolute offset
// (spec.md §4.2 read/write).
type ReadRequest struct {
	FCB uint32
	Pos uint32
	Len uint16
}

func (r *ReadRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 11)
	buf[0] = byte(CmdRead)
	putBE32(buf[1:5], r.FCB)
	putBE32(buf[5:9], r.Pos)
	putBE16(buf[9:11], r.Len)
	return buf, nil
}

func (r *ReadRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 11 {
		return ErrShortRecord
	}
	r.FCB = be32(data[1:5])
	r.Pos = be32(data[5:9])
	r.Len = be16(data[9:11])
	return nil
}

// WriteRequest's on-wire payload length is the fixed header above
// plus len(Data) (spec.md §4.2): the frame shrinks to fit the actual
// bytes carried rather than always sending a full cache line.
type WriteRequest struct {
	FCB  uint32
	Pos  uint32
	Len  uint16
	Data []byte
}

func (r *WriteRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 11, 11+len(r.Data))
	buf[0] = byte(CmdWrite)
	putBE32(buf[1:5], r.FCB)
	putBE32(buf[5:9], r.Pos)
	putBE16(buf[9:11], r.Len)
	return append(buf, r.Data...), nil
}

func (r *WriteRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 11 {
		return ErrShortRecord
	}
	r.FCB = be32(data[1:5])
	r.Pos = be32(data[5:9])
	r.Len = be16(data[9:11])
	want := int(r.Len)
	if len(data)-11 < want {
		return ErrShortRecord
	}
	r.Data = append([]byte(nil), data[11:11+want]...)
	return nil
}

type FiledateRequest struct {
	FCB  uint32
	Time uint16
	Date uint16
}

func (r *FiledateRequest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 9)
	buf[0] = byte(CmdFiledate)
	putBE32(buf[1:5], r.FCB)
	putBE16(buf[5:7], r.Time)
	putBE16(buf[7:9], r.Date)
	return buf, nil
}

func (r *FiledateRequest) UnmarshalBinary(data []byte) error {
	if len(data) < 9 {
		return ErrShortRecord
	}
	r.FCB = be32(data[1:5])
	r.Time = be16(data[5:7])
	r.Date = be16(data[7:9])
	return nil
}

type DskfreRequest struct{}

func (r *DskfreRequest) MarshalBinary() ([]byte, error) { return []byte{byte(CmdDskfre)}, nil }

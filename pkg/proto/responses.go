package proto

// StatusResponse is the common shape for chdir, mkdir, rmdir, rename,
// delete and close: a single signed status byte.
type StatusResponse struct {
	Res int8
}

func (r *StatusResponse) MarshalBinary() ([]byte, error) {
	return []byte{byte(r.Res)}, nil
}

func (r *StatusResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return ErrShortRecord
	}
	r.Res = int8(data[0])
	return nil
}

// ChmodResponse carries the current attribute byte (query) or the
// requested attribute byte (set) in Res on success, or a negative
// client error code on failure — both fit the
// same signed byte (spec.md §8 scenario 4).
type ChmodResponse = StatusResponse

type OpenResponse struct {
	Res  int8
	Size uint32
}

func (r *OpenResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 5)
	buf[0] = byte(r.Res)
	putBE32(buf[1:5], r.Size)
	return buf, nil
}

func (r *OpenResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return ErrShortRecord
	}
	r.Res = int8(data[0])
	r.Size = be32(data[1:5])
	return nil
}

// FilesResponse backs both files and nfiles: a status byte (negative
// client error code, or 0 on a match, or NOMORE when the enumeration
// is exhausted) plus one FileInfo record.
type FilesResponse struct {
	Res  int8
	File FileInfo
}

func (r *FilesResponse) MarshalBinary() ([]byte, error) {
	f, _ := r.File.MarshalBinary()
	return append([]byte{byte(r.Res)}, f...), nil
}

func (r *FilesResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 1+FileInfoSize {
		return ErrShortRecord
	}
	r.Res = int8(data[0])
	return r.File.UnmarshalBinary(data[1 : 1+FileInfoSize])
}

// ReadResponse carries a signed length (negative: client error code)
// followed by exactly that many data bytes when positive.
type ReadResponse struct {
	Len  int16
	Data []byte
}

func (r *ReadResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 2, 2+len(r.Data))
	putBE16(buf[0:2], uint16(r.Len))
	if r.Len > 0 {
		buf = append(buf, r.Data...)
	}
	return buf, nil
}

func (r *ReadResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return ErrShortRecord
	}
	r.Len = int16(be16(data[0:2]))
	if r.Len > 0 {
		if len(data)-2 < int(r.Len) {
			return ErrShortRecord
		}
		r.Data = append([]byte(nil), data[2:2+int(r.Len)]...)
	} else {
		r.Data = nil
	}
	return nil
}

type WriteResponse struct {
	Len int16
}

func (r *WriteResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 2)
	putBE16(buf, uint16(r.Len))
	return buf, nil
}

func (r *WriteResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return ErrShortRecord
	}
	r.Len = int16(be16(data[0:2]))
	return nil
}

type FiledateResponse struct {
	Time uint16
	Date uint16
}

func (r *FiledateResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	putBE16(buf[0:2], r.Time)
	putBE16(buf[2:4], r.Date)
	return buf, nil
}

func (r *FiledateResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return ErrShortRecord
	}
	r.Time = be16(data[0:2])
	r.Date = be16(data[2:4])
	return nil
}

type DskfreResponse struct {
	Res          int32
	FreeClu      uint16
	TotalClu     uint16
	SectPerClu   uint16
	SectorSize   uint16
}

func (r *DskfreResponse) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 12)
	putBE32(buf[0:4], uint32(r.Res))
	putBE16(buf[4:6], r.FreeClu)
	putBE16(buf[6:8], r.TotalClu)
	putBE16(buf[8:10], r.SectPerClu)
	putBE16(buf[10:12], r.SectorSize)
	return buf, nil
}

func (r *DskfreResponse) UnmarshalBinary(data []byte) error {
	if len(data) < 12 {
		return ErrShortRecord
	}
	r.Res = int32(be32(data[0:4]))
	r.FreeClu = be16(data[4:6])
	r.TotalClu = be16(data[6:8])
	r.SectPerClu = be16(data[8:10])
	r.SectorSize = be16(data[10:12])
	return nil
}

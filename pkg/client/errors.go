package client

import "fmt"

// RemoteError wraps a negative status code the service returned for a
// request (spec.md §4.7's codes, as seen from the driver side — the
// driver never re-derives them from errno, it just surfaces what the
// wire carried).
type RemoteError struct {
	Code int8
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client: remote error %d", e.Code)
}

// ErrCantSeek is returned locally by Seek when the computed position
// would exceed the file size (spec.md §4.3 "seek"); it never reaches
// the wire.
var ErrCantSeek = fmt.Errorf("client: seek position exceeds file size")

// statusErr converts a signed status byte into an error, or nil for
// success (res == 0).
func statusErr(res int8) error {
	if res >= 0 {
		return nil
	}
	return &RemoteError{Code: res}
}

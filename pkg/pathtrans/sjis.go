// Package pathtrans builds host filesystem paths from the client's
// name-buffer structure and implements the 8.3/Shift-JIS glob matcher
// used by the files/nfiles enumeration (spec.md §4.6). Grounded on
// conv_namebuf and op_files in the original remoteserv.c, translated
// to Go idiom using golang.org/x/text/encoding/japanese — the same
// x/text family the teacher pulls in transitively through its
// dependency graph for text transforms elsewhere in the corpus.
package pathtrans

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrUnrepresentable is returned when a byte string cannot be
// transcoded into the requested encoding.
var ErrUnrepresentable = fmt.Errorf("pathtrans: string not representable in target encoding")

// sjisLeadByte reports whether b can only appear as the first byte of
// a Shift-JIS double-byte sequence (spec.md §4.6 and GLOSSARY).
func sjisLeadByte(b byte) bool {
	return (b >= 0x81 && b <= 0x9f) || (b >= 0xe0 && b <= 0xef)
}

// ToUTF8 converts a Shift-JIS byte string to a UTF-8 string.
func ToUTF8(sjis []byte) (string, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), sjis)
	if err != nil {
		return "", fmt.Errorf("pathtrans: decode shift-jis: %w", err)
	}
	return string(out), nil
}

// FromUTF8 converts a UTF-8 string to a Shift-JIS byte string. It
// returns ErrUnrepresentable, wrapped, when the string contains
// characters with no Shift-JIS encoding (spec.md §4.6 "the host
// cannot represent a candidate's UTF-8 name in Shift-JIS").
func FromUTF8(s string) ([]byte, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrepresentable, err)
	}
	return out, nil
}

// lowerASCIISJISAware lowercases ASCII letters in b, skipping the
// second byte of any Shift-JIS double-byte sequence so it is never
// folded (spec.md §4.6 "letters inside a double-byte sequence are not
// accidentally case-folded").
func lowerASCIISJISAware(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i := 0; i < len(out); i++ {
		if sjisLeadByte(out[i]) {
			i++
			continue
		}
		if out[i] >= 'A' && out[i] <= 'Z' {
			out[i] |= 0x20
		}
	}
	return out
}

// validNameByte reports whether c can legally appear in a client-side
// file name, per spec.md §4.6 "Entries that contain bytes unrepresentable
// in the client's name space are skipped".
func validNameByte(c byte, pos int) bool {
	if c <= 0x1f {
		return false
	}
	if c == '-' && pos == 0 {
		return false
	}
	return bytes.IndexByte([]byte(`/\,;<=>[]|`), c) == -1
}

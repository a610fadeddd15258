package pathtrans

import (
	"github.com/nozomi-fs/remotedrive/pkg/proto"
)

// BuildHostPath builds a host filesystem path from a client name
// buffer, rooted at root (spec.md §4.6, step 1-3):
//
//  1. Walk the 65-byte path field, collapsing runs of 0x09 into a
//     single '/' followed by the run of non-separator bytes.
//  2. If full, append the decomposed primary name: part 1 and part 2
//     joined and trimmed of trailing NUL/space, then '.', then the
//     extension trimmed of trailing space, then any trailing '.'.
//  3. Prefix root and convert the assembled Shift-JIS byte string to
//     UTF-8.
func BuildHostPath(nb *proto.NameBuf, full bool, root string) (string, error) {
	var bb []byte

	i := 0
	for i < len(nb.Path) {
		for i < len(nb.Path) && nb.Path[i] == 0x09 {
			i++
		}
		if i >= len(nb.Path) || nb.Path[i] == 0x00 {
			break
		}
		bb = append(bb, '/')
		for i < len(nb.Path) && nb.Path[i] != 0x00 && nb.Path[i] != 0x09 {
			bb = append(bb, nb.Path[i])
			i++
		}
	}

	if full {
		bb = append(bb, '/')
		bb = append(bb, nb.Name1[:]...)
		bb = append(bb, nb.Name2[:]...)
		bb = trimTrailing(bb, 0x00)
		bb = trimTrailing(bb, 0x20)
		bb = append(bb, '.')
		bb = append(bb, nb.Ext[:]...)
		bb = trimTrailing(bb, 0x20)
		bb = trimTrailing(bb, '.')
	}

	utf8Path, err := ToUTF8(bb)
	if err != nil {
		return "", err
	}
	return root + utf8Path, nil
}

func trimTrailing(b []byte, c byte) []byte {
	n := len(b)
	for n > 0 && b[n-1] == c {
		n--
	}
	return b[:n]
}

package pathtrans

import (
	"github.com/nozomi-fs/remotedrive/pkg/proto"
)

// patternSize is the length of the normalized 21-byte search pattern:
// 8 bytes of primary name part 1, 10 of part 2, 3 of extension.
const patternSize = 21

// Pattern is the normalized 21-byte search key built from a files/
// nfiles request's name buffer (spec.md §4.6 "Name matching").
type Pattern struct {
	bytes [patternSize]byte
}

// BuildPattern assembles and normalizes the search pattern from nb.
func BuildPattern(nb *proto.NameBuf) Pattern {
	var w [patternSize]byte
	copy(w[0:8], nb.Name1[:])

	if nb.Name1[7] == '?' && nb.Name2[0] == 0x00 {
		for i := 8; i < 18; i++ {
			w[i] = '?'
		}
	} else {
		copy(w[8:18], nb.Name2[:])
	}
	for i := 17; i >= 0 && (w[i] == 0x00 || w[i] == ' '); i-- {
		w[i] = 0x00
	}

	copy(w[18:21], nb.Ext[:])
	for i := 20; i >= 18 && w[i] == ' '; i-- {
		w[i] = 0x00
	}

	lowered := lowerASCIISJISAware(w[:])
	var p Pattern
	copy(p.bytes[:], lowered)
	return p
}

// IsVolumeQuery reports whether this pattern is the synthetic "*.*"
// wildcard used to request a volume-label entry at the exported root
// (spec.md §4.6 "Volume label synthesis"): the client always encodes
// "*" as a run of '?', so the check is on the first byte of each
// component, not the whole field.
func (p Pattern) IsVolumeQuery() bool {
	return p.bytes[0] == '?' && p.bytes[18] == '?'
}

// splitHostName decomposes a Shift-JIS host file name into its
// 8.3-style (base, ext) parts, following the original's "find the
// last dot among the final four characters" rule so names like
// "a.b.c" split as base="a.b", ext="c". Returns ok=false if the base
// would exceed 18 bytes.
func splitHostName(name []byte) (base, ext []byte, ok bool) {
	k := len(name)
	m := k
	switch {
	case k >= 1 && name[k-1] == '.':
		m = k
	case k >= 3 && name[k-2] == '.':
		m = k - 2
	case k >= 4 && name[k-3] == '.':
		m = k - 3
	case k >= 5 && name[k-4] == '.':
		m = k - 4
	}
	if m > 18 {
		return nil, nil, false
	}
	base = name[:m]
	if m < k && name[m] == '.' {
		ext = name[m+1:]
		if len(ext) > 3 {
			ext = ext[:3]
		}
	}
	return base, ext, true
}

// Matches reports whether the host file name hostName (already
// converted to Shift-JIS) satisfies p, per spec.md §4.6's byte-by-byte
// comparison: '?' matches anything, ASCII letters fold case, and the
// Shift-JIS second-byte state is tracked so letters inside a
// double-byte sequence are compared verbatim.
func (p Pattern) Matches(hostNameSJIS []byte) bool {
	base, ext, ok := splitHostName(hostNameSJIS)
	if !ok {
		return false
	}
	if len(base) > 18 {
		return false
	}

	var w2 [patternSize]byte
	copy(w2[0:], base)
	copy(w2[18:21], ext)

	secondByteExpected := false
	for i := 0; i < patternSize; i++ {
		c := w2[i]
		d := p.bytes[i]
		if d != '?' {
			cc := c
			if !secondByteExpected && c >= 'A' && c <= 'Z' {
				cc = c | 0x20
			}
			if cc != d {
				return false
			}
		}
		secondByteExpected = !secondByteExpected && sjisLeadByte(c)
	}
	return true
}

// ValidCandidateName reports whether every byte of the Shift-JIS
// encoded name is legal in the client's name space (spec.md §4.6),
// tracking Shift-JIS lead bytes so their second byte is never checked
// against the invalid-character set.
func ValidCandidateName(nameSJIS []byte) bool {
	for i := 0; i < len(nameSJIS); i++ {
		c := nameSJIS[i]
		if sjisLeadByte(c) {
			i++
			continue
		}
		if !validNameByte(c, i) {
			return false
		}
	}
	return true
}

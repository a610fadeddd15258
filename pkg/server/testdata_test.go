package server

import (
	"github.com/nozomi-fs/remotedrive/pkg/hostfs"
	"github.com/nozomi-fs/remotedrive/pkg/proto"
)

// testRoot is the exported root's host path used throughout this
// package's tests. It must be non-empty: rootFor treats an empty
// string as "no root configured for this unit" (spec.md §4.6 "Root
// mapping"), so a real mount-point-shaped prefix is used instead of
// the filesystem's own "/".
const testRoot = "/export"

// newTestServer wires a Server over a fresh in-memory filesystem with
// testRoot mounted as drive 0, mirroring the teacher's preference for
// exercising handlers against a fake transport/backing store rather
// than real hardware or disk (see pkg/can/virtual in the teacher
// corpus).
func newTestServer() (*Server, *hostfs.MemFS) {
	fs := hostfs.NewMemFS()
	fs.PutDir(testRoot)
	var roots [8]string
	roots[0] = testRoot
	s := New(fs, roots)
	return s, fs
}

// p joins testRoot with a MemFS-relative suffix for seeding fixtures.
func p(suffix string) string { return testRoot + suffix }

// dirPath builds the 65-byte path field for a name buffer addressing
// the directory chain segs, relative to the exported root (spec.md §3
// "Name buffer"): a leading 0x09 names the root itself, and each
// further segment is introduced by its own 0x09 separator.
func dirPath(segs ...string) [65]byte {
	var buf [65]byte
	buf[0] = 0x09
	i := 1
	for _, s := range segs {
		for _, c := range []byte(s) {
			buf[i] = c
			i++
		}
		buf[i] = 0x09
		i++
	}
	return buf
}

// name83 space-pads base/ext into the fixed 8.3 fields.
func name83(base, ext string) (n1 [8]byte, ex [3]byte) {
	for i := range n1 {
		n1[i] = ' '
	}
	for i := range ex {
		ex[i] = ' '
	}
	copy(n1[:], base)
	copy(ex[:], ext)
	return
}

// nameBuf builds a NameBuf addressing drive's exported root, the
// directory chain dirs, and (when full is needed downstream) the 8.3
// name base.ext.
func nameBuf(drive byte, dirs []string, base, ext string) proto.NameBuf {
	n1, ex := name83(base, ext)
	return proto.NameBuf{Drive: drive, Path: dirPath(dirs...), Name1: n1, Ext: ex}
}

// wildcardNameBuf builds the "*.*" enumeration pattern (Name1 all '?',
// Name2 empty, Ext all '?'), which spec.md §8 scenario 3 and §4.6
// require to match every legal file.
func wildcardNameBuf(drive byte, dirs ...string) proto.NameBuf {
	nb := proto.NameBuf{Drive: drive, Path: dirPath(dirs...)}
	for i := range nb.Name1 {
		nb.Name1[i] = '?'
	}
	for i := range nb.Ext {
		nb.Ext[i] = '?'
	}
	return nb
}

func mustMarshal(m interface{ MarshalBinary() ([]byte, error) }) []byte {
	b, err := m.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

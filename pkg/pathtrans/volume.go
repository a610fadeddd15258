package pathtrans

// VolumeName converts the exported root's UTF-8 host path into the
// Shift-JIS name used for the synthetic volume-label entry (spec.md
// §4.6 "Volume label synthesis"). If any character of the root path
// has no Shift-JIS encoding, the returned name is empty; the
// enumeration itself does not fail.
func VolumeName(rootPath string) []byte {
	sjis, err := FromUTF8(rootPath)
	if err != nil {
		return []byte{}
	}
	return sjis
}

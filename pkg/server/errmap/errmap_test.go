package errmap

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorDefaultMapping(t *testing.T) {
	assert.Equal(t, NOENT, FromError(CallOther, syscall.ENOENT))
	assert.Equal(t, ISDIR, FromError(CallOther, syscall.EISDIR))
	assert.Equal(t, RDONLY, FromError(CallOther, syscall.EACCES))
	assert.Equal(t, RDONLY, FromError(CallOther, syscall.EPERM))
	assert.Equal(t, RDONLY, FromError(CallOther, syscall.EROFS))
}

func TestFromErrorDefaultsToILGPARM(t *testing.T) {
	assert.Equal(t, ILGPARM, FromError(CallOther, fmt.Errorf("boom")))
	assert.Equal(t, ILGPARM, FromError(CallOther, syscall.ENOTTY))
}

func TestFromErrorNilIsOK(t *testing.T) {
	assert.Equal(t, OK, FromError(CallOther, nil))
}

func TestPerCallOverrides(t *testing.T) {
	assert.Equal(t, ISCURDIR, FromError(CallRmdir, syscall.EINVAL))
	assert.Equal(t, NODIR, FromError(CallOther, syscall.ENOTDIR)) // unaffected by unrelated override

	assert.Equal(t, CANTREN, FromError(CallRename, syscall.ENOTEMPTY))
	assert.Equal(t, NOTEMPTY, FromError(CallOther, syscall.ENOTEMPTY))

	assert.Equal(t, EXISTDIR, FromError(CallMkdir, syscall.EEXIST))
	assert.Equal(t, EXISTFILE, FromError(CallOther, syscall.EEXIST))

	assert.Equal(t, DIRFULL, FromError(CallCreate, syscall.ENOSPC))
	assert.Equal(t, DISKFULL, FromError(CallOther, syscall.ENOSPC))

	assert.Equal(t, ILGARG, FromError(CallOpen, syscall.EINVAL))
	assert.Equal(t, ILGPARM, FromError(CallOther, syscall.EINVAL))

	assert.Equal(t, NODIR, FromError(CallOpendir, syscall.ENOENT))
	assert.Equal(t, NOENT, FromError(CallOther, syscall.ENOENT))
}

func TestWrappedErrnoIsUnwrapped(t *testing.T) {
	wrapped := fmt.Errorf("stat %q: %w", "/tmp/x", syscall.ENOENT)
	assert.Equal(t, NOENT, FromError(CallOther, wrapped))
}

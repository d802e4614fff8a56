//go:build linux && (amd64 || ppc64 || ppc64le || s390x || mips64 || mips64le)

package dirfd

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// legacySupported reports whether SYS_getdents exists with the 64-bit
// linux_dirent layout dirent.Legacy decodes.
const legacySupported = true

func getdentsLegacy(fd int, buf []byte) (int, error) {
	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}
	r, _, errno := unix.Syscall(unix.SYS_GETDENTS, uintptr(fd), uintptr(p), uintptr(len(buf)))
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

//go:build linux && !(amd64 || ppc64 || ppc64le || s390x || mips64 || mips64le)

package dirfd

import "golang.org/x/sys/unix"

// 32-bit ports use a 4-byte d_ino/d_off in linux_dirent and newer ports
// (arm64, riscv64, loong64) have no SYS_getdents at all.
const legacySupported = false

func getdentsLegacy(fd int, buf []byte) (int, error) {
	return 0, unix.ENOSYS
}

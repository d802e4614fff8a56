// Package dirfd wraps a directory file descriptor and the raw syscalls used
// to enumerate it: lseek to rewind and getdents to fill a buffer.
package dirfd

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/dl/dirlistseek/internal/dirent"
)

// API selects which read-directory-entries syscall Fill issues.
type API int

const (
	APIAuto     API = iota // legacy getdents where the port has it, else getdents64
	APILegacy              // SYS_getdents, struct linux_dirent
	APIDirent64            // SYS_getdents64, struct linux_dirent64
)

func (a API) String() string {
	switch a {
	case APIAuto:
		return "auto"
	case APILegacy:
		return "legacy"
	case APIDirent64:
		return "dirent64"
	}
	return fmt.Sprintf("API(%d)", int(a))
}

// ParseAPI converts a flag value into an API.
func ParseAPI(s string) (API, error) {
	switch s {
	case "auto", "":
		return APIAuto, nil
	case "legacy", "getdents":
		return APILegacy, nil
	case "dirent64", "getdents64":
		return APIDirent64, nil
	}
	return APIAuto, fmt.Errorf("unknown getdents api %q (want auto, legacy or dirent64)", s)
}

// ErrLegacyUnsupported is returned when APILegacy is requested on a port
// without SYS_getdents.
var ErrLegacyUnsupported = errors.New("legacy getdents is not available on this platform")

// Dir is an open directory handle usable only for enumeration.
type Dir struct {
	fd   int
	path string
	api  API
}

// Open opens path read-only as a directory. api picks the fill syscall;
// APIAuto resolves to the legacy call when it exists.
func Open(path string, api API) (*Dir, error) {
	switch api {
	case APIAuto:
		if legacySupported {
			api = APILegacy
		} else {
			api = APIDirent64
		}
	case APILegacy:
		if !legacySupported {
			return nil, &PathError{Op: "open", Path: path, Err: ErrLegacyUnsupported}
		}
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}
	return &Dir{fd: fd, path: path, api: api}, nil
}

// Path returns the path the handle was opened with.
func (d *Dir) Path() string { return d.path }

// API returns the resolved fill syscall.
func (d *Dir) API() API { return d.api }

// Layout reports the record format Fill produces.
func (d *Dir) Layout() dirent.Layout {
	if d.api == APILegacy {
		return dirent.Legacy
	}
	return dirent.Dirent64
}

// Rewind repositions the stream so the next Fill starts at the first entry.
func (d *Dir) Rewind() error {
	if _, err := unix.Seek(d.fd, 0, unix.SEEK_SET); err != nil {
		return &PathError{Op: "lseek", Path: d.path, Err: err}
	}
	return nil
}

// Fill reads as many records as fit into buf starting at the current stream
// position and returns the number of bytes written. 0 means end of stream.
func (d *Dir) Fill(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	for {
		if d.api == APILegacy {
			n, err = getdentsLegacy(d.fd, buf)
		} else {
			n, err = unix.Getdents(d.fd, buf)
		}
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, &PathError{Op: d.syscallName(), Path: d.path, Err: err}
	}
	return n, nil
}

func (d *Dir) syscallName() string {
	if d.api == APILegacy {
		return "getdents"
	}
	return "getdents64"
}

// Close releases the descriptor. Closing twice returns EBADF from the
// second call.
func (d *Dir) Close() error {
	if d.fd < 0 {
		return &PathError{Op: "close", Path: d.path, Err: unix.EBADF}
	}
	err := unix.Close(d.fd)
	d.fd = -1
	if err != nil {
		return &PathError{Op: "close", Path: d.path, Err: err}
	}
	return nil
}

// PathError records the syscall and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

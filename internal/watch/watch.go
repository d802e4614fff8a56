package watch

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Event represents a change to a watched directory.
type Event struct {
	Path string // entry that changed, or the directory itself
	Type EventType
	Err  error
}

// EventType identifies the kind of directory change.
type EventType int

const (
	EventEntryAdded EventType = iota
	EventEntryRemoved
	EventEntryChanged
	EventDirGone // the watched directory was deleted or moved
)

func (t EventType) String() string {
	switch t {
	case EventEntryAdded:
		return "added"
	case EventEntryRemoved:
		return "removed"
	case EventEntryChanged:
		return "changed"
	case EventDirGone:
		return "gone"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

const dirMask = unix.IN_CREATE | unix.IN_DELETE | unix.IN_MOVED_FROM | unix.IN_MOVED_TO |
	unix.IN_ATTRIB | unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// Watcher watches directories for entry changes using raw inotify + epoll.
type Watcher struct {
	inotifyFd int
	epollFd   int
	watches   map[int]string // wd -> path
	done      chan struct{}
}

// New creates a new inotify-based directory watcher.
func New() (*Watcher, error) {
	ifd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(ifd)
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	// Register inotify fd with epoll
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(ifd),
	}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, ifd, &event); err != nil {
		unix.Close(efd)
		unix.Close(ifd)
		return nil, fmt.Errorf("epoll_ctl: %w", err)
	}

	return &Watcher{
		inotifyFd: ifd,
		epollFd:   efd,
		watches:   make(map[int]string),
		done:      make(chan struct{}),
	}, nil
}

// Add starts watching a directory for entries being created, removed,
// renamed or having their metadata changed.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	wd, err := unix.InotifyAddWatch(w.inotifyFd, absPath, dirMask|unix.IN_ONLYDIR)
	if err != nil {
		return fmt.Errorf("inotify_add_watch %s: %w", absPath, err)
	}

	w.watches[wd] = absPath
	return nil
}

// Events returns a channel of directory events. The channel is closed
// after Close() is called or on a fatal read error.
func (w *Watcher) Events() <-chan Event {
	ch := make(chan Event, 64)
	go func() {
		defer close(ch)
		buf := make([]byte, 4096)
		events := make([]unix.EpollEvent, 1)

		for {
			select {
			case <-w.done:
				return
			default:
			}

			// Wait for events with 100ms timeout
			n, err := unix.EpollWait(w.epollFd, events, 100)
			if err != nil {
				if err == unix.EINTR {
					continue
				}
				ch <- Event{Err: fmt.Errorf("epoll_wait: %w", err)}
				return
			}
			if n == 0 {
				continue
			}

			nbytes, err := unix.Read(w.inotifyFd, buf)
			if err != nil {
				if err == unix.EAGAIN {
					continue
				}
				ch <- Event{Err: fmt.Errorf("read inotify: %w", err)}
				return
			}

			w.parseEvents(buf[:nbytes], ch)
		}
	}()
	return ch
}

// inotify event header layout:
//
//	int32  wd       (offset 0)
//	uint32 mask     (offset 4)
//	uint32 cookie   (offset 8)
//	uint32 len      (offset 12)
//	char   name[]   (offset 16)
const inotifyEventSize = 16

func (w *Watcher) parseEvents(buf []byte, ch chan<- Event) {
	offset := 0
	for offset+inotifyEventSize <= len(buf) {
		wd := int32(binary.NativeEndian.Uint32(buf[offset:]))
		mask := binary.NativeEndian.Uint32(buf[offset+4:])
		// cookie at offset+8 (unused)
		nameLen := int(binary.NativeEndian.Uint32(buf[offset+12:]))

		var name string
		if nameLen > 0 {
			nameStart := offset + inotifyEventSize
			nameEnd := nameStart + nameLen
			if nameEnd > len(buf) {
				break
			}
			nameBytes := buf[nameStart:nameEnd]
			// Trim NUL padding
			for i, b := range nameBytes {
				if b == 0 {
					nameBytes = nameBytes[:i]
					break
				}
			}
			name = string(nameBytes)
		}

		offset += inotifyEventSize + nameLen

		dirPath := w.watches[int(wd)]
		path := dirPath
		if name != "" {
			path = filepath.Join(dirPath, name)
		}

		switch {
		case mask&(unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0:
			ch <- Event{Path: dirPath, Type: EventDirGone}
		case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
			ch <- Event{Path: path, Type: EventEntryAdded}
		case mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0:
			ch <- Event{Path: path, Type: EventEntryRemoved}
		case mask&unix.IN_ATTRIB != 0:
			ch <- Event{Path: path, Type: EventEntryChanged}
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	close(w.done)
	unix.Close(w.epollFd)
	return unix.Close(w.inotifyFd)
}

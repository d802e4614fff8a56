package dirent

import (
	"encoding/binary"
	"fmt"
	"iter"
)

// Legacy linux_dirent structure layout (SYS_getdents on 64-bit ports):
//
//	struct linux_dirent {
//	    unsigned long  d_ino;     /* Inode number */
//	    unsigned long  d_off;     /* Offset to next linux_dirent */
//	    unsigned short d_reclen;  /* Length of this linux_dirent */
//	    char           d_name[];  /* Filename (null-terminated) */
//	                              /* char pad;  Zero padding byte */
//	    char           d_type;    /* File type, at offset d_reclen - 1 */
//	};
//
// linux_dirent64 (getdents64) shares the first three fields but stores
// d_type at offset 18, immediately before d_name.

const (
	offIno    = 0
	offOff    = 8
	offReclen = 16

	headerSize = 18

	// MinReclen is the smallest valid record in either layout: fixed header,
	// one NUL for an empty name and one type byte.
	MinReclen = headerSize + 1 + 1
)

// Layout selects which kernel record format a buffer holds.
type Layout int

const (
	// Legacy is struct linux_dirent: the type tag is the last byte of the record.
	Legacy Layout = iota
	// Dirent64 is struct linux_dirent64: the type tag sits in the header.
	Dirent64
)

func (l Layout) String() string {
	switch l {
	case Legacy:
		return "linux_dirent"
	case Dirent64:
		return "linux_dirent64"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// nameOffset returns where d_name begins within a record.
func (l Layout) nameOffset() int {
	if l == Dirent64 {
		return headerSize + 1
	}
	return headerSize
}

// Record is a single decoded directory entry. Name is copied out of the
// fill buffer, so a Record remains valid after the buffer is refilled.
type Record struct {
	Ino    uint64
	Off    int64 // opaque stream cursor, not a buffer offset
	Reclen uint16
	Type   EntryType
	Name   string
}

// Records walks the first n bytes of buf and yields one Record per entry.
// The walk stops at the first malformed record, which is yielded as an error.
// n == 0 yields nothing.
func Records(buf []byte, n int, layout Layout) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if n < 0 || n > len(buf) {
			yield(Record{}, fmt.Errorf("dirent: byte count %d outside buffer of %d bytes", n, len(buf)))
			return
		}

		offset := 0
		for offset < n {
			rec, err := decode(buf[:n], offset, layout)
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
			offset += int(rec.Reclen)
		}
	}
}

// Parse decodes the first n bytes of buf into Records.
// dst is reused to avoid per-call slice allocation; pass nil on first call.
// On error the records decoded before the malformed one are returned.
func Parse(buf []byte, n int, layout Layout, dst []Record) ([]Record, error) {
	records := dst[:0]
	for rec, err := range Records(buf, n, layout) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// decode reads the record starting at offset. buf is already bounded to the
// fill count.
func decode(buf []byte, offset int, layout Layout) (Record, error) {
	remaining := len(buf) - offset
	if remaining < headerSize {
		return Record{}, &MalformedRecordError{
			Offset: offset,
			Reason: fmt.Sprintf("%d trailing bytes, shorter than the %d byte header", remaining, headerSize),
		}
	}

	reclen := int(binary.NativeEndian.Uint16(buf[offset+offReclen:]))
	if reclen < MinReclen {
		return Record{}, &MalformedRecordError{
			Offset: offset,
			Reclen: reclen,
			Reason: fmt.Sprintf("record length below minimum %d", MinReclen),
		}
	}
	if reclen > remaining {
		return Record{}, &MalformedRecordError{
			Offset: offset,
			Reclen: reclen,
			Reason: fmt.Sprintf("record overruns buffer by %d bytes", reclen-remaining),
		}
	}

	rec := buf[offset : offset+reclen]

	var tag byte
	nameBytes := rec[layout.nameOffset():]
	if layout == Dirent64 {
		tag = rec[headerSize]
	} else {
		tag = rec[reclen-1]
		nameBytes = nameBytes[:len(nameBytes)-1]
	}

	nameLen := clen(nameBytes)
	if nameLen == len(nameBytes) {
		return Record{}, &MalformedRecordError{
			Offset: offset,
			Reclen: reclen,
			Reason: "name is not NUL terminated",
		}
	}

	return Record{
		Ino:    binary.NativeEndian.Uint64(rec[offIno:]),
		Off:    int64(binary.NativeEndian.Uint64(rec[offOff:])),
		Reclen: uint16(reclen),
		Type:   TypeOf(tag),
		Name:   string(nameBytes[:nameLen]),
	}, nil
}

func clen(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return len(b)
}

// AppendRecord encodes r in the given layout and appends it to dst.
// If r.Reclen is zero the length is computed and rounded up to 8 bytes the
// way the kernel pads records; otherwise r.Reclen is used as is and must
// be large enough to hold the name.
func AppendRecord(dst []byte, layout Layout, r Record) []byte {
	reclen := int(r.Reclen)
	need := layout.nameOffset() + len(r.Name) + 1
	if layout == Legacy {
		need++
	}
	if reclen == 0 {
		reclen = (need + 7) &^ 7
	}
	if reclen < need {
		panic(fmt.Sprintf("dirent: reclen %d too small for name %q", reclen, r.Name))
	}

	start := len(dst)
	dst = append(dst, make([]byte, reclen)...)
	rec := dst[start:]

	binary.NativeEndian.PutUint64(rec[offIno:], r.Ino)
	binary.NativeEndian.PutUint64(rec[offOff:], uint64(r.Off))
	binary.NativeEndian.PutUint16(rec[offReclen:], uint16(reclen))
	copy(rec[layout.nameOffset():], r.Name)

	if layout == Dirent64 {
		rec[headerSize] = r.Type.Tag()
	} else {
		rec[reclen-1] = r.Type.Tag()
	}
	return dst
}

// MalformedRecordError reports a record that cannot be decoded. Continuing
// past it is impossible since the walk has no valid length to advance by.
type MalformedRecordError struct {
	Offset int
	Reclen int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed dirent at offset %d (d_reclen=%d): %s", e.Offset, e.Reclen, e.Reason)
}

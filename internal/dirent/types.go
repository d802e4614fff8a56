package dirent

// File type constants from dirent.h
const (
	DT_UNKNOWN = 0
	DT_FIFO    = 1
	DT_CHR     = 2
	DT_DIR     = 4
	DT_BLK     = 6
	DT_REG     = 8
	DT_LNK     = 10
	DT_SOCK    = 12
)

// EntryType classifies a directory entry by its d_type tag.
type EntryType uint8

const (
	Unknown EntryType = iota
	Regular
	Directory
	FIFO
	Socket
	Symlink
	BlockDevice
	CharDevice
)

// TypeOf maps a raw d_type byte to an EntryType. Unrecognized tags,
// including DT_UNKNOWN and DT_WHT, map to Unknown.
func TypeOf(tag byte) EntryType {
	switch tag {
	case DT_REG:
		return Regular
	case DT_DIR:
		return Directory
	case DT_FIFO:
		return FIFO
	case DT_SOCK:
		return Socket
	case DT_LNK:
		return Symlink
	case DT_BLK:
		return BlockDevice
	case DT_CHR:
		return CharDevice
	}
	return Unknown
}

// Tag returns the d_type byte for t.
func (t EntryType) Tag() byte {
	switch t {
	case Regular:
		return DT_REG
	case Directory:
		return DT_DIR
	case FIFO:
		return DT_FIFO
	case Socket:
		return DT_SOCK
	case Symlink:
		return DT_LNK
	case BlockDevice:
		return DT_BLK
	case CharDevice:
		return DT_CHR
	}
	return DT_UNKNOWN
}

func (t EntryType) String() string {
	switch t {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case FIFO:
		return "FIFO"
	case Socket:
		return "socket"
	case Symlink:
		return "symlink"
	case BlockDevice:
		return "block dev"
	case CharDevice:
		return "char dev"
	}
	return "???"
}

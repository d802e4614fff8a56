package dirent

import "testing"

func TestTypeOf(t *testing.T) {
	tests := []struct {
		tag  byte
		want EntryType
		name string
	}{
		{DT_REG, Regular, "regular"},
		{DT_DIR, Directory, "directory"},
		{DT_FIFO, FIFO, "FIFO"},
		{DT_SOCK, Socket, "socket"},
		{DT_LNK, Symlink, "symlink"},
		{DT_BLK, BlockDevice, "block dev"},
		{DT_CHR, CharDevice, "char dev"},
		{DT_UNKNOWN, Unknown, "???"},
		{14, Unknown, "???"}, // DT_WHT
		{255, Unknown, "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeOf(tt.tag)
			if got != tt.want {
				t.Errorf("TypeOf(%d) = %v, want %v", tt.tag, got, tt.want)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %q, want %q", got.String(), tt.name)
			}
		})
	}
}

func TestTypeRoundTrip(t *testing.T) {
	all := []EntryType{Unknown, Regular, Directory, FIFO, Socket, Symlink, BlockDevice, CharDevice}
	for _, layout := range []Layout{Legacy, Dirent64} {
		for _, typ := range all {
			buf := AppendRecord(nil, layout, Record{Ino: 5, Type: typ, Name: "x"})
			got, err := Parse(buf, len(buf), layout, nil)
			if err != nil {
				t.Fatalf("%v/%v: Parse() error: %v", layout, typ, err)
			}
			if got[0].Type != typ {
				t.Errorf("%v: type %v round-tripped to %v", layout, typ, got[0].Type)
			}
		}
	}
}

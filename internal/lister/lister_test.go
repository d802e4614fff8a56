package lister

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/dl/dirlistseek/internal/dirent"
	"github.com/dl/dirlistseek/internal/dirfd"
)

// fakeStream serves canned fills. Each Fill after a Rewind returns the next
// entry of fills; the last entry repeats.
type fakeStream struct {
	fills       [][]byte
	rewinds     int
	fillCalls   int
	rewindErr   error
	fillErr     error
	afterRewind bool
}

func (f *fakeStream) Rewind() error {
	if f.rewindErr != nil {
		return f.rewindErr
	}
	f.rewinds++
	f.afterRewind = true
	return nil
}

func (f *fakeStream) Fill(buf []byte) (int, error) {
	if f.fillErr != nil {
		return 0, f.fillErr
	}
	f.fillCalls++
	if !f.afterRewind || len(f.fills) == 0 {
		return 0, nil
	}
	f.afterRewind = false
	idx := min(f.rewinds-1, len(f.fills)-1)
	return copy(buf, f.fills[idx]), nil
}

func (f *fakeStream) Layout() dirent.Layout { return dirent.Legacy }

func fixture(recs ...dirent.Record) []byte {
	var buf []byte
	for _, r := range recs {
		buf = dirent.AppendRecord(buf, dirent.Legacy, r)
	}
	return buf
}

var twoRecords = []dirent.Record{
	{Ino: 100, Off: 1, Reclen: 32, Type: dirent.Regular, Name: "file.txt"},
	{Ino: 200, Off: 2, Reclen: 24, Type: dirent.Directory, Name: "sub"},
}

func collect(t *testing.T, s Stream, opts Options) ([]Pass, error) {
	t.Helper()
	var passes []Pass
	err := Run(context.Background(), s, opts, func(p Pass) error {
		passes = append(passes, p)
		return nil
	})
	return passes, err
}

func TestRun_TenPasses(t *testing.T) {
	s := &fakeStream{fills: [][]byte{fixture(twoRecords...)}}

	passes, err := collect(t, s, Options{Check: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(passes) != DefaultPasses {
		t.Fatalf("got %d passes, want %d", len(passes), DefaultPasses)
	}
	if s.rewinds != DefaultPasses {
		t.Errorf("rewinds = %d, want %d", s.rewinds, DefaultPasses)
	}
	for i, p := range passes {
		if p.Index != i || p.N != 56 {
			t.Errorf("pass %d: Index=%d N=%d, want Index=%d N=56", i, p.Index, p.N, i)
		}
		if diff := pretty.Compare(p.Records, twoRecords); diff != "" {
			t.Errorf("pass %d records diff (-got +want):\n%s", i, diff)
		}
	}
}

func TestRun_EmptyFirstFill(t *testing.T) {
	s := &fakeStream{}
	passes, err := collect(t, s, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(passes) != 0 {
		t.Errorf("got %d passes, want 0", len(passes))
	}
	if s.fillCalls != 1 {
		t.Errorf("fill calls = %d, want 1", s.fillCalls)
	}
}

func TestRun_Errors(t *testing.T) {
	seekErr := errors.New("seek failed")
	readErr := errors.New("read failed")

	bad := fixture(twoRecords...)
	bad[16], bad[17] = 0, 0 // d_reclen = 0

	tests := []struct {
		name   string
		stream *fakeStream
		step   string
		want   error
	}{
		{"rewind", &fakeStream{rewindErr: seekErr}, "lseek", seekErr},
		{"fill", &fakeStream{fillErr: readErr}, "getdents", readErr},
		{"malformed", &fakeStream{fills: [][]byte{bad}}, "parse", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passes, err := collect(t, tt.stream, Options{})
			if len(passes) != 0 {
				t.Errorf("got %d passes before failure, want 0", len(passes))
			}
			var pe *PassError
			if !errors.As(err, &pe) {
				t.Fatalf("Run() error = %v, want *PassError", err)
			}
			if pe.Step != tt.step {
				t.Errorf("Step = %q, want %q", pe.Step, tt.step)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error %v does not wrap %v", err, tt.want)
			}
			if tt.name == "malformed" {
				var mre *dirent.MalformedRecordError
				if !errors.As(err, &mre) {
					t.Errorf("error %v does not wrap *MalformedRecordError", err)
				}
			}
		})
	}
}

func TestRun_Inconsistent(t *testing.T) {
	changed := append([]dirent.Record(nil), twoRecords...)
	changed[1].Name = "sux"
	s := &fakeStream{fills: [][]byte{
		fixture(twoRecords...),
		fixture(twoRecords...),
		fixture(changed...),
	}}

	var seen int
	err := Run(context.Background(), s, Options{Check: true}, func(Pass) error {
		seen++
		return nil
	})
	var ie *InconsistentPassError
	if !errors.As(err, &ie) {
		t.Fatalf("Run() error = %v, want *InconsistentPassError", err)
	}
	if ie.Index != 2 {
		t.Errorf("Index = %d, want 2", ie.Index)
	}
	if seen != 3 {
		t.Errorf("callback saw %d passes, want 3", seen)
	}
	if got := firstDifference(ie.First, ie.Got); got != 1 {
		t.Errorf("firstDifference = %d, want 1", got)
	}
	wantMsg := "pass 2 differs from pass 0 at record 1: pass 0 has 2 records, pass 2 has 2"
	if ie.Error() != wantMsg {
		t.Errorf("Error() = %q, want %q", ie.Error(), wantMsg)
	}

	// Without Check the same stream completes.
	s = &fakeStream{fills: s.fills}
	if _, err := collect(t, s, Options{}); err != nil {
		t.Errorf("Run() without Check error: %v", err)
	}
}

func TestRun_CallbackError(t *testing.T) {
	s := &fakeStream{fills: [][]byte{fixture(twoRecords...)}}
	stop := errors.New("stop")
	calls := 0
	err := Run(context.Background(), s, Options{}, func(Pass) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Run() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeStream{fills: [][]byte{fixture(twoRecords...)}}
	err := Run(ctx, s, Options{}, func(Pass) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if s.rewinds != 0 {
		t.Errorf("rewinds = %d, want 0", s.rewinds)
	}
}

func TestRun_RealDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "d"), 0755); err != nil {
		t.Fatal(err)
	}

	d, err := dirfd.Open(dir, dirfd.APIAuto)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	passes, err := collect(t, d, Options{Check: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(passes) != DefaultPasses {
		t.Fatalf("got %d passes, want %d", len(passes), DefaultPasses)
	}
	for _, p := range passes {
		sum := 0
		for _, r := range p.Records {
			sum += int(r.Reclen)
		}
		if sum != p.N {
			t.Errorf("pass %d: sum of d_reclen = %d, want %d", p.Index, sum, p.N)
		}
		if len(p.Records) != 6 {
			t.Errorf("pass %d: %d records, want 6", p.Index, len(p.Records))
		}
	}
}

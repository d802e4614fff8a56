// Package lister drives repeated rewind-and-fill passes over a directory
// stream and hands each decoded pass to a callback.
package lister

import (
	"context"
	"fmt"
	"slices"

	"github.com/dl/dirlistseek/internal/dirent"
)

const (
	DefaultPasses  = 10
	DefaultBufSize = 1024
)

// Stream is a directory stream that can be rewound and read in raw form.
// *dirfd.Dir implements it.
type Stream interface {
	Rewind() error
	Fill(buf []byte) (int, error)
	Layout() dirent.Layout
}

// Options configures a Run.
type Options struct {
	Passes  int  // maximum number of passes; 0 means DefaultPasses
	BufSize int  // fill buffer size in bytes; 0 means DefaultBufSize
	Check   bool // compare every pass against the first
}

// Pass is the decoded result of one rewind-then-fill cycle.
// Records are copies and stay valid after the next fill.
type Pass struct {
	Index   int // 0-based
	N       int // bytes returned by the fill
	Records []dirent.Record
}

// Run rewinds s and fills a buffer up to opts.Passes times, calling fn with
// each decoded pass. It stops early when a fill returns 0 bytes. Any
// rewind, fill or decode failure ends the run. With opts.Check set, a pass
// that differs from the first is reported as *InconsistentPassError after
// fn has seen it.
func Run(ctx context.Context, s Stream, opts Options, fn func(Pass) error) error {
	if opts.Passes <= 0 {
		opts.Passes = DefaultPasses
	}
	if opts.BufSize <= 0 {
		opts.BufSize = DefaultBufSize
	}

	buf := make([]byte, opts.BufSize)
	var first []dirent.Record
	layout := s.Layout()

	for i := range opts.Passes {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.Rewind(); err != nil {
			return &PassError{Index: i, Step: "lseek", Err: err}
		}
		n, err := s.Fill(buf)
		if err != nil {
			return &PassError{Index: i, Step: "getdents", Err: err}
		}
		if n == 0 {
			return nil
		}

		records, err := dirent.Parse(buf, n, layout, nil)
		if err != nil {
			return &PassError{Index: i, Step: "parse", Err: err}
		}

		if err := fn(Pass{Index: i, N: n, Records: records}); err != nil {
			return err
		}

		if !opts.Check {
			continue
		}
		if i == 0 {
			first = records
			continue
		}
		if !slices.Equal(first, records) {
			return &InconsistentPassError{Index: i, First: first, Got: records}
		}
	}
	return nil
}

// PassError wraps a failure in one step of a pass.
type PassError struct {
	Index int
	Step  string
	Err   error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %d: %s: %v", e.Index, e.Step, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// InconsistentPassError reports a pass whose records differ from the first
// pass even though the stream was rewound to the start before each fill.
type InconsistentPassError struct {
	Index int
	First []dirent.Record
	Got   []dirent.Record
}

func (e *InconsistentPassError) Error() string {
	at := firstDifference(e.First, e.Got)
	return fmt.Sprintf("pass %d differs from pass 0 at record %d: pass 0 has %d records, pass %d has %d",
		e.Index, at, len(e.First), e.Index, len(e.Got))
}

func firstDifference(a, b []dirent.Record) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	return min(len(a), len(b))
}

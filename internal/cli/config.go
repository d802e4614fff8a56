package cli

import (
	"fmt"

	"github.com/dl/dirlistseek/internal/dirent"
	"github.com/dl/dirlistseek/internal/dirfd"
)

// ColorMode controls when colored output is used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when stdout is a terminal
	ColorAlways                  // always use color
	ColorNever                   // never use color
)

// ParseColorMode converts a --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// maxBufSize bounds the fill buffer; getdents never needs more than a
// few pages to make progress.
const maxBufSize = 1 << 20

// Config holds all configuration for a dirlistseek run.
type Config struct {
	Path       string
	Passes     int
	BufSize    int
	API        dirfd.API
	JSONOutput bool
	Color      ColorMode
	Check      bool
	WatchMode  bool
	Verbose    bool
}

// Validate checks that the config is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("no directory specified")
	}
	if c.Passes < 1 {
		return fmt.Errorf("invalid pass count: %d", c.Passes)
	}
	if c.BufSize < dirent.MinReclen {
		return fmt.Errorf("buffer size %d is smaller than one directory entry (%d bytes)", c.BufSize, dirent.MinReclen)
	}
	if c.BufSize > maxBufSize {
		return fmt.Errorf("buffer size %d exceeds %d bytes", c.BufSize, maxBufSize)
	}
	if c.JSONOutput && c.Color == ColorAlways {
		return fmt.Errorf("cannot use --json and --color=always together")
	}
	return nil
}

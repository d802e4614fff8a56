package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/dl/dirlistseek/internal/dirent"
	"github.com/dl/dirlistseek/internal/dirfd"
	"github.com/dl/dirlistseek/internal/lister"
	"github.com/dl/dirlistseek/internal/output"
	"github.com/dl/dirlistseek/internal/watch"
)

// Exit codes returned by Run.
const (
	ExitOK           = 0
	ExitInconsistent = 1 // --check found passes that differ
	ExitError        = 2
)

// Run executes the listing with the given config, writing diagnostics to
// stderr. Returns exit code: 0 = success, 1 = passes differ, 2 = error.
func Run(ctx context.Context, cfg Config) int {
	return run(ctx, cfg, output.NewWriter(), os.Stderr)
}

func run(ctx context.Context, cfg Config, w *output.Writer, stderr io.Writer) int {
	level := log.WarnLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(stderr, log.Options{
		Level:  level,
		Prefix: "dirlistseek",
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return ExitError
	}

	dir, err := dirfd.Open(cfg.Path, cfg.API)
	if err != nil {
		logger.Error("cannot open directory", "path", cfg.Path, "err", err)
		return ExitError
	}
	defer dir.Close()
	logger.Debug("opened directory", "path", cfg.Path, "api", dir.API(), "layout", dir.Layout())

	pw := output.NewPassWriter(w, newFormatter(cfg))
	opts := lister.Options{
		Passes:  cfg.Passes,
		BufSize: cfg.BufSize,
		Check:   cfg.Check,
	}

	if code := runPasses(ctx, dir, opts, pw, logger); code != ExitOK || !cfg.WatchMode {
		return code
	}
	return runWatch(ctx, dir, opts, pw, logger)
}

func newFormatter(cfg Config) output.Formatter {
	if cfg.JSONOutput {
		return output.NewJSONFormatter()
	}

	useColor := false
	switch cfg.Color {
	case ColorAlways:
		useColor = true
	case ColorNever:
		useColor = false
	case ColorAuto:
		useColor = output.StdoutIsTerminal()
	}

	if useColor {
		return output.NewTextFormatter(output.NewStyles())
	}
	return output.NewTextFormatter(output.NoStyles())
}

func runPasses(ctx context.Context, dir *dirfd.Dir, opts lister.Options, pw *output.PassWriter, logger *log.Logger) int {
	passes := 0
	err := lister.Run(ctx, dir, opts, func(p lister.Pass) error {
		passes++
		logger.Debug("pass", "index", p.Index, "nread", p.N, "records", len(p.Records))
		return pw.WritePass(p)
	})
	if err == nil {
		logger.Debug("done", "path", dir.Path(), "passes", passes)
		return ExitOK
	}
	return exitCode(err, dir.Path(), logger)
}

// exitCode logs err and maps it to a process exit code.
func exitCode(err error, path string, logger *log.Logger) int {
	var (
		inconsistent *lister.InconsistentPassError
		malformed    *dirent.MalformedRecordError
		pathErr      *dirfd.PathError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitOK
	case errors.As(err, &inconsistent):
		logger.Error("directory listing changed between passes", "path", path, "err", err)
		return ExitInconsistent
	case errors.As(err, &malformed):
		logger.Error("malformed directory entry", "path", path, "err", err)
	case errors.As(err, &pathErr):
		logger.Error("read failed", "path", path, "op", pathErr.Op, "err", pathErr.Err)
	default:
		logger.Error("listing failed", "path", path, "err", err)
	}
	return ExitError
}

// runWatch re-runs the passes every time the directory's entries change,
// until the directory disappears or ctx is cancelled.
func runWatch(ctx context.Context, dir *dirfd.Dir, opts lister.Options, pw *output.PassWriter, logger *log.Logger) int {
	watcher, err := watch.New()
	if err != nil {
		logger.Error("failed to create watcher", "err", err)
		return ExitError
	}
	defer watcher.Close()

	if err := watcher.Add(dir.Path()); err != nil {
		logger.Error("failed to watch", "path", dir.Path(), "err", err)
		return ExitError
	}

	events := watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return ExitOK
		case evt, ok := <-events:
			if !ok {
				return ExitOK
			}
			if evt.Err != nil {
				logger.Error("watch error", "err", evt.Err)
				return ExitError
			}
			if evt.Type == watch.EventDirGone {
				logger.Warn("watched directory removed", "path", evt.Path)
				return ExitOK
			}

			logger.Debug("directory changed", "entry", evt.Path, "event", evt.Type)
			gone, err := drain(events)
			if err != nil {
				logger.Error("watch error", "err", err)
				return ExitError
			}
			if gone {
				logger.Warn("watched directory removed", "path", dir.Path())
				return ExitOK
			}
			if code := runPasses(ctx, dir, opts, pw, logger); code != ExitOK {
				return code
			}
		}
	}
}

// drain discards events already queued so a burst of changes triggers a
// single re-listing. It stops at the first event that ends the watch: the
// directory going away, or a watcher failure, which the watcher sends just
// before closing the channel.
func drain(events <-chan watch.Event) (gone bool, err error) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return false, nil
			}
			if evt.Err != nil {
				return false, evt.Err
			}
			if evt.Type == watch.EventDirGone {
				return true, nil
			}
		default:
			return false, nil
		}
	}
}

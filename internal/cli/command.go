package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dl/dirlistseek/internal/dirfd"
	"github.com/dl/dirlistseek/internal/lister"
)

// flagValues mirrors Config for the string-typed flags that need parsing.
type flagValues struct {
	api   string
	color string
}

// NewRootCommand builds the dirlistseek command. The exit code of the run is
// stored in *code; flag and argument errors are returned by Execute.
func NewRootCommand(ctx context.Context, code *int) *cobra.Command {
	cfg := Config{Path: "."}
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "dirlistseek [directory]",
		Short: "Rewind a directory stream and dump raw getdents records on every pass",
		Long: "dirlistseek opens a directory, then repeatedly seeks its descriptor back to the start " +
			"and reads one buffer of raw directory entries with getdents, printing the inode, type, " +
			"record length, opaque d_off cookie and name of every record. It is meant for checking " +
			"that a filesystem (for example a FUSE mount) handles lseek(fd, 0, SEEK_SET) on directories.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Path = args[0]
			}

			api, err := dirfd.ParseAPI(fv.api)
			if err != nil {
				return err
			}
			cfg.API = api

			color, err := ParseColorMode(fv.color)
			if err != nil {
				return err
			}
			cfg.Color = color

			*code = Run(ctx, cfg)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Passes, "passes", "n", lister.DefaultPasses, "maximum number of rewind-and-read passes")
	flags.IntVarP(&cfg.BufSize, "buffer-size", "b", lister.DefaultBufSize, "getdents buffer size in bytes")
	flags.StringVar(&fv.api, "api", "auto", "getdents variant: auto, legacy or dirent64")
	flags.BoolVar(&cfg.JSONOutput, "json", false, "print one JSON object per record")
	flags.StringVar(&fv.color, "color", "auto", "colorize headers: auto, always or never")
	flags.BoolVar(&cfg.Check, "check", false, "exit 1 if any pass differs from the first")
	flags.BoolVarP(&cfg.WatchMode, "watch", "w", false, "re-run the passes whenever the directory changes")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log debug diagnostics to stderr")

	return cmd
}

// Execute runs the command with config-file arguments prepended to args and
// returns the process exit code.
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	defaults, err := LoadConfigArgs()
	if err != nil {
		log.NewWithOptions(stderr, log.Options{Prefix: "dirlistseek"}).
			Error("cannot load config file", "err", err)
		return ExitError
	}

	code := ExitOK
	cmd := NewRootCommand(ctx, &code)
	cmd.SetArgs(append(defaults, args...))
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		cmd.PrintErrln(cmd.UsageString())
		return ExitError
	}
	return code
}

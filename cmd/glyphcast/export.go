package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/glyphcast/export"
	"go.jacobcolvin.com/glyphcast/progress"
	"go.jacobcolvin.com/glyphcast/still"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// reporter returns the progress display for an export: the interactive
// view on a terminal, a plain bar otherwise. Quitting the view calls
// cancel.
func (a *app) reporter(ctx context.Context, cancel context.CancelFunc) progress.Reporter {
	if isTerminal(a.stderr) {
		return progress.NewTUI(ctx, a.stderr, cancel)
	}

	return progress.NewBar(a.stderr)
}

// runExport writes input in the configured export format.
func (a *app) runExport(ctx context.Context, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	job := a.render.ExportJob(input, a.render.UseTruecolor(a.getenv))

	e := export.New(a.tools, still.NewLoader(still.Parser(a.render.Parser)))
	e.Logger = a.logger

	a.fwd.Hold()

	rep := a.reporter(ctx, cancel)
	e.Reporter = rep

	start := time.Now()
	out, err := e.Run(ctx, job)

	rep.Close()
	a.fwd.Release()

	if err != nil {
		return err
	}

	a.logger.Info("export finished",
		slog.String("output", out),
		slog.String("format", string(job.Format)),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)

	return nil
}

func (a *app) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <source>",
		Short: "Export a rendering as text, PNG, video or a packed container",
		Long: `export renders a source and writes the result to --output, or to a path
derived from the source name. --format selects the output:

  text      rendered characters (images only)
  image     a PNG of the rendered characters (images only)
  video     an MP4 of the rendered characters (videos only)
  pythonic  a packed .pi or .pv container of the source`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd.Context(), args[0])
		},
	}
}

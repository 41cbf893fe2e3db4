package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/glyphcast/config"
	"go.jacobcolvin.com/glyphcast/log"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/profile"
)

// logBufferSize is the number of log entries queued per subscriber.
const logBufferSize = 256

// app holds the state shared by every command.
type app struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	logCfg     *log.Config
	profileCfg *profile.Config
	renderCfg  *config.Config

	render   config.RenderConfig
	tools    media.Tools
	logger   *slog.Logger
	fwd      *log.Forwarder
	profiler *profile.Profiler
}

func newApp(stdin *os.File, stdout, stderr io.Writer) *app {
	return &app{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		getenv:     os.Getenv,
		logCfg:     log.NewConfig(),
		profileCfg: profile.NewConfig(),
		renderCfg:  config.NewConfig(),
		render:     config.New(),
		tools:      media.DefaultTools(),
		logger:     slog.Default(),
	}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "glyphcast [flags] <source>",
		Short: "Render images, videos and webcams as terminal text",
		Long: `glyphcast renders still images, video files and live webcams as Braille,
half-block or shade characters in the terminal. Videos play with optional
audio and keyboard control, and any source can be exported to text, PNG,
video or a packed container.

The source is routed by --type. With auto_detect, camera names such as 0,
/dev/video0 or webcam:1 open a webcam, video extensions play, and anything
else is shown as an image.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.show(cmd.Context(), args[0])
		},
	}

	flags := root.PersistentFlags()
	a.logCfg.RegisterFlags(flags)
	a.profileCfg.RegisterFlags(flags)
	a.renderCfg.RegisterFlags(flags)

	root.AddCommand(
		a.imageCommand(),
		a.playCommand(),
		a.webcamCommand(),
		a.infoCommand(),
		a.exportCommand(),
		a.schemaCommand(),
		a.versionCommand(),
	)

	err := errors.Join(
		a.logCfg.RegisterCompletions(root),
		a.profileCfg.RegisterCompletions(root),
		a.renderCfg.RegisterCompletions(root),
	)
	if err != nil {
		fmt.Fprintf(a.stderr, "register completions: %v\n", err)
	}

	return root
}

// setup routes logs through a forwarder to stderr, starts profiling and
// loads the render configuration.
func (a *app) setup() error {
	pub := log.NewPublisher(log.WithBufferSize(logBufferSize))
	a.fwd = log.NewForwarder(pub, a.stderr)

	handler, err := a.logCfg.NewHandler(pub)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	a.profiler = a.profileCfg.NewProfiler()

	err = a.profiler.Start()
	if err != nil {
		return fmt.Errorf("start profiler: %w", err)
	}

	render, warnings, err := a.renderCfg.Load()
	if err != nil {
		return err
	}

	for _, w := range warnings {
		a.logger.Warn("adjusted configuration", slog.String("detail", w))
	}

	a.render = render

	return nil
}

// shutdown stops profiling and flushes the log forwarder.
func (a *app) shutdown() error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
	}

	if a.fwd != nil {
		a.fwd.Close()
	}

	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/glyphcast/config"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/still"
)

// resolveType returns the concrete source type for arg. Explicit types are
// kept; auto_detect maps camera names to webcam, video extensions to video
// and everything else to image.
func resolveType(typ, arg string) string {
	if typ != config.TypeAutoDetect {
		return typ
	}

	switch media.Classify(arg) {
	case media.KindWebcam:
		return config.TypeWebcam
	case media.KindVideo:
		return config.TypeVideo
	default:
		return config.TypeImage
	}
}

// show routes arg by the configured type.
func (a *app) show(ctx context.Context, arg string) error {
	switch typ := resolveType(a.render.Type, arg); typ {
	case config.TypeImage:
		return a.showImage(ctx, arg)
	case config.TypeVideo:
		return a.playFile(ctx, arg)
	case config.TypeWebcam:
		return a.playWebcam(ctx, arg)
	case config.TypeVideoInfo:
		return a.showInfo(ctx, arg)
	case config.TypeText:
		return a.showText(arg)
	default:
		return fmt.Errorf("%w: type %q", config.ErrInvalidValue, typ)
	}
}

// stillRenderer returns a still renderer for the current configuration.
func (a *app) stillRenderer() *still.Renderer {
	r := still.NewRenderer(still.NewLoader(still.Parser(a.render.Parser)), a.render.CanvasMode(), a.render.MaxWidth)
	r.Params = a.render.Params()
	r.Options.Truecolor = a.render.UseTruecolor(a.getenv)
	r.Logger = a.logger

	return r
}

// showImage writes the rendered image to stdout. Failures are rendered as
// an error line in place of the image.
func (a *app) showImage(ctx context.Context, path string) error {
	out, err := a.stillRenderer().Render(ctx, path)
	if err != nil {
		fmt.Fprintf(a.stdout, "Error: %v\n", err)

		return &reportedError{err: err}
	}

	_, err = a.stdout.Write(out)

	return err
}

// showText prints arg, or the contents of the file it names.
func (a *app) showText(arg string) error {
	text := arg

	data, err := os.ReadFile(arg)
	switch {
	case err == nil:
		text = string(data)
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read %s: %w", arg, err)
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	_, err = io.WriteString(a.stdout, text)

	return err
}

// showInfo prints the probed metadata of a video file.
func (a *app) showInfo(ctx context.Context, path string) error {
	resolved, cleanup, err := media.Resolve(path)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := a.tools.Probe(ctx, resolved)
	if err != nil {
		return err
	}

	return writeInfo(a.stdout, path, info)
}

// writeInfo formats info as aligned key/value lines.
func writeInfo(w io.Writer, path string, info media.Info) error {
	audio := "no"
	if info.HasAudio {
		audio = "yes"
	}

	_, err := fmt.Fprintf(w,
		"File:       %s\nResolution: %dx%d\nFPS:        %.3f\nDuration:   %s\nFrames:     %d\nAudio:      %s\n",
		path, info.Width, info.Height, info.FPS, formatDuration(info.Duration), info.FrameCount(), audio)

	return err
}

// formatDuration renders seconds as H:MM:SS.mmm, or "unknown" when the
// duration is not positive.
func formatDuration(s float64) string {
	if s <= 0 {
		return "unknown"
	}

	ms := int64(s*1000 + 0.5)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	sec := ms / 1000 % 60

	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, sec, ms%1000)
}

func (a *app) imageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "image <path>",
		Short: "Render a still image to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showImage(cmd.Context(), args[0])
		},
	}
}

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <video>",
		Short: "Print video metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showInfo(cmd.Context(), args[0])
		},
	}
}

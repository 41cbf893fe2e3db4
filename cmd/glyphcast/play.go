package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/glyphcast/audio"
	"go.jacobcolvin.com/glyphcast/buffer"
	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/keyboard"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/player"
	"go.jacobcolvin.com/glyphcast/termstate"
)

// Webcams do not report their size before the first frame; decode them at
// 4:3.
const (
	webcamWidth  = 640
	webcamHeight = 480
)

// playback describes one playback session.
type playback struct {
	src  media.Source
	info media.Info
	// seekable sources restart the decoder on seek.
	seekable bool
	// audio is false for cameras and silent files.
	audio bool
}

// terminalWidth returns the column count of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return 0, false
	}

	return cols, true
}

// maxWidth returns the configured width, narrowed to fit the terminal.
func (a *app) maxWidth() int {
	width := a.render.MaxWidth

	cols, ok := terminalWidth(a.stdout)
	if ok && cols < width {
		a.logger.Debug("narrowing output to terminal", slog.Int("max_width", width), slog.Int("columns", cols))

		width = cols
	}

	return width
}

// playEnd returns the end of playback in seconds. Like the decoder trim,
// an end_time of zero or less is open, so it falls back to the probed
// duration when that is known. Ends past the duration are clamped to it.
func playEnd(endTime, duration float64) float64 {
	if duration <= 0 {
		return endTime
	}

	if endTime <= 0 {
		return duration
	}

	return min(endTime, duration)
}

// playFile probes and plays a video file.
func (a *app) playFile(ctx context.Context, path string) error {
	err := a.tools.Check()
	if err != nil {
		return err
	}

	resolved, cleanup, err := media.Resolve(path)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := a.tools.Probe(ctx, resolved)
	if err != nil {
		return err
	}

	a.logger.Debug("probed video",
		slog.String("path", path),
		slog.Int("width", info.Width),
		slog.Int("height", info.Height),
		slog.Float64("fps", info.FPS),
		slog.Float64("duration", info.Duration),
		slog.Bool("audio", info.HasAudio),
	)

	return a.play(ctx, playback{
		src:      media.FileSource(resolved),
		info:     info,
		seekable: a.render.Interactive(),
		audio:    info.HasAudio,
	})
}

// playWebcam plays a live camera.
func (a *app) playWebcam(ctx context.Context, name string) error {
	n, ok := media.ParseWebcam(name)
	if !ok {
		return fmt.Errorf("%w: %q is not a camera", media.ErrUnsupportedSource, name)
	}

	err := a.tools.Check()
	if err != nil {
		return err
	}

	if a.render.AudioEnabled() {
		a.logger.Info("webcams play without audio")
	}

	return a.play(ctx, playback{
		src:  media.CameraSource(n),
		info: media.Info{Width: webcamWidth, Height: webcamHeight},
	})
}

// play runs the player inside the terminal guard.
func (a *app) play(ctx context.Context, pb playback) error {
	r := a.render
	mode := r.CanvasMode()
	width := a.maxWidth()

	c, err := canvas.New(mode, canvas.Options{Truecolor: r.UseTruecolor(a.getenv)})
	if err != nil {
		return err
	}

	fps := r.FPS
	if fps <= 0 {
		fps = pb.info.FPS
	}

	if fps <= 0 {
		fps = 30
	}

	end := playEnd(r.EndTime, pb.info.Duration)

	w, h := media.ScaledSize(pb.info.Width, pb.info.Height, width, mode.DotsX(), mode.DotsY())
	geom := player.Geometry{Format: mode.PixelFormat(), Width: w, Height: h}
	opts := media.VideoOptions{
		Format: geom.Format,
		Width:  w,
		Height: h,
		FPS:    fps,
		Start:  r.StartTime,
		End:    r.EndTime,
	}

	src, err := a.openSource(ctx, pb, geom, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	state := termstate.Default()

	a.fwd.Hold()
	guard := termstate.NewGuard(state, a.stdout)

	defer func() {
		guard.Restore()
		a.fwd.Release()
	}()

	p := player.New(c, src, a.stdout, player.Config{
		Params:     r.Params(),
		FPS:        fps,
		Start:      r.StartTime,
		End:        end,
		MaxWidth:   width,
		SeekFrames: r.SeekFrames,
		Volume:     r.Volume,
		VolumeStep: r.VolumeStep,
	})
	p.Logger = a.logger
	p.Interrupted = state.WasInterrupted

	if pb.audio && r.AudioEnabled() {
		ap := a.startAudio(ctx, pb.src.Path)
		if ap != nil {
			defer ap.Close()

			p.Audio = ap
		}
	}

	if r.Interactive() {
		keys := a.startKeys(ctx)
		if keys != nil {
			defer keys.Stop()

			p.Commands = keys.Commands()
		}
	}

	stats := p.Run(ctx)

	guard.Restore()
	a.fwd.Release()

	a.logger.Info("playback finished",
		slog.Int("frames", stats.Frames),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("elapsed", stats.Elapsed.Round(time.Millisecond)),
		slog.String("avg_fps", fmt.Sprintf("%.1f", stats.AverageFPS())),
	)

	if state.WasInterrupted() {
		return context.Canceled
	}

	return nil
}

// openSource starts the decoder. Seekable sources restart ffmpeg at the
// seek target; the others read a single stream.
func (a *app) openSource(ctx context.Context, pb playback, geom player.Geometry, opts media.VideoOptions) (player.Source, error) {
	if pb.seekable {
		open := func(ctx context.Context, start float64) (buffer.FrameSource, error) {
			o := opts
			o.Start = start

			fs, err := a.tools.OpenVideo(ctx, pb.src, o)
			if err != nil {
				return nil, err
			}

			return fs, nil
		}

		return player.NewSeekableSource(ctx, open, player.SeekableOptions{
			Logger: a.logger,
			Geom:   geom,
			FPS:    opts.FPS,
			Start:  opts.Start,
			Ahead:  a.render.BufferAheadFrames,
			Behind: a.render.BufferBehindFrames,
		}), nil
	}

	fs, err := a.tools.OpenVideo(ctx, pb.src, opts)
	if err != nil {
		return nil, err
	}

	first := buffer.FrameNumber(max(opts.Start, 0), opts.FPS)

	return player.NewStreamSource(fs, geom, opts.FPS, buffer.DefaultSlots, first), nil
}

// startAudio starts the audio pipeline. Playback continues silently when
// no output device is available.
func (a *app) startAudio(ctx context.Context, path string) *audio.Player {
	ap := audio.NewPlayer(audio.FileOpener(a.tools, path, a.render.EndTime), &audio.Speaker{}, a.render.Volume, a.logger)

	err := ap.Start(ctx, max(a.render.StartTime, 0))
	if err != nil {
		a.logger.Warn("playing without audio", slog.Any("err", err))
		ap.Close()

		return nil
	}

	return ap
}

// startKeys reads playback keys from stdin. Key handling is skipped when
// stdin is not a terminal.
func (a *app) startKeys(ctx context.Context) *keyboard.Manager {
	keys, err := a.render.KeyMap()
	if err != nil {
		a.logger.Warn("using default keys", slog.Any("err", err))

		keys = keyboard.DefaultKeyMap()
	}

	m := keyboard.NewManager(keys.Bindings())

	err = m.Start(ctx, a.stdin)
	if err != nil {
		if !errors.Is(err, keyboard.ErrNotTerminal) {
			a.logger.Warn("keyboard unavailable", slog.Any("err", err))
		}

		return nil
	}

	return m
}

func (a *app) playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <video>",
		Short: "Play a video file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.playFile(cmd.Context(), args[0])
		},
	}
}

func (a *app) webcamCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "webcam [camera]",
		Short: "Show a live webcam in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "0"
			if len(args) > 0 {
				name = args[0]
			}

			return a.playWebcam(cmd.Context(), name)
		},
	}
}

// Package player runs the interactive render loop.
//
// One [Player] covers every mode: it pulls frames from a [Source], loads
// them into a [canvas.Canvas], appends the status line, and writes each
// composed frame with a single Write call at absolute deadlines kept by a
// [Pacer]. Commands from the keyboard are drained at the top of every
// iteration; an optional [Audio] follows pause, volume and seek.
package player

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/keyboard"
)

// Audio is the sound side of playback.
type Audio interface {
	SetPaused(paused bool)
	SetVolume(v int)
	Seek(t float64)
	Close()
}

// frameBufferSize is the initial capacity of the composed frame.
const frameBufferSize = 512 << 10

// idleInterval is the sleep while paused or waiting for a seek.
const idleInterval = 10 * time.Millisecond

// Config holds the playback settings of one run.
type Config struct {
	Params     canvas.Params
	FPS        float64
	Start      float64
	End        float64
	MaxWidth   int
	SeekFrames int
	Volume     int
	VolumeStep int
}

// Stats summarize a finished run.
type Stats struct {
	Frames  int
	Skipped int
	Elapsed time.Duration
	Last    float64
}

// AverageFPS returns the achieved frame rate.
func (s Stats) AverageFPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}

	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Player renders a frame source to a terminal.
type Player struct {
	Canvas   canvas.Canvas
	Source   Source
	Audio    Audio
	Commands <-chan keyboard.Command
	Out      io.Writer
	Clock    Clock
	Logger   *slog.Logger
	// Interrupted is polled once per frame.
	Interrupted func() bool

	cfg     Config
	status  Status
	frame   []byte
	pacer   *Pacer
	volume  int
	current float64
	paused  bool
	running bool
}

// New returns a player. Floyd-Steinberg dithering needs a whole frame of
// error state per frame, so playback substitutes ordered dithering.
func New(c canvas.Canvas, src Source, out io.Writer, cfg Config) *Player {
	p := &Player{
		Canvas: c,
		Source: src,
		Out:    out,
		Clock:  SystemClock,
		Logger: slog.Default(),
		cfg:    cfg,
		volume: min(max(cfg.Volume, 0), 100),
	}

	if p.cfg.FPS <= 0 {
		p.cfg.FPS = 30
	}

	p.status = Status{
		Start:    max(cfg.Start, 0),
		End:      cfg.End,
		BarWidth: StatusBarWidth(cfg.MaxWidth),
	}

	return p
}

// Volume returns the current volume.
func (p *Player) Volume() int {
	return p.volume
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	return p.paused
}

// Run plays until the source ends, a stop command arrives, ctx is done or
// the process is interrupted.
func (p *Player) Run(ctx context.Context) Stats {
	if p.cfg.Params.Dithering == canvas.DitherFloydSteinberg {
		p.Logger.InfoContext(ctx, "floyd_steinberg is for still images; playing with ordered dithering")
		p.cfg.Params.Dithering = canvas.DitherOrdered
	}

	if p.Audio != nil {
		p.Audio.SetVolume(p.volume)
	}

	period := time.Duration(float64(time.Second) / p.cfg.FPS)
	p.pacer = NewPacer(p.Clock, period)
	p.frame = make([]byte, 0, frameBufferSize)
	p.running = true
	p.current = p.status.Start

	var stats Stats

	begin := p.Clock.Now()

	for p.running {
		if ctx.Err() != nil || (p.Interrupted != nil && p.Interrupted()) {
			break
		}

		p.drainCommands()

		if !p.running {
			break
		}

		if p.paused || p.Source.SeekPending() {
			p.Clock.Sleep(idleInterval)

			continue
		}

		f, ok := p.Source.Next()
		if !ok {
			break
		}

		err := p.Canvas.LoadFrame(f.Frame, p.cfg.Params)
		if err != nil {
			p.Logger.ErrorContext(ctx, "loading frame", slog.Int("frame", f.Number), slog.Any("err", err))

			break
		}

		p.current = f.Timestamp

		p.frame = append(p.frame[:0], glyph.CursorHome...)
		p.frame = p.Canvas.Render(p.frame)
		p.frame = p.status.Append(p.frame, f.Timestamp, p.volume)

		_, err = p.Out.Write(p.frame)
		if err != nil {
			p.Logger.ErrorContext(ctx, "writing frame", slog.Any("err", err))

			break
		}

		stats.Frames++
		stats.Last = f.Timestamp

		p.pacer.Wait()
	}

	stats.Elapsed = p.Clock.Now().Sub(begin)
	stats.Skipped = p.pacer.Skipped()

	return stats
}

func (p *Player) drainCommands() {
	for {
		select {
		case c, ok := <-p.Commands:
			if !ok {
				p.Commands = nil

				return
			}

			p.Apply(c)
		default:
			return
		}
	}
}

// Apply performs one command.
func (p *Player) Apply(c keyboard.Command) {
	switch c {
	case keyboard.CommandPause:
		p.paused = !p.paused
		if p.Audio != nil {
			p.Audio.SetPaused(p.paused)
		}

		if !p.paused && p.pacer != nil {
			p.pacer.Reset()
		}
	case keyboard.CommandStop:
		p.running = false
	case keyboard.CommandVolumeUp:
		p.setVolume(p.volume + p.cfg.VolumeStep)
	case keyboard.CommandVolumeDown:
		p.setVolume(p.volume - p.cfg.VolumeStep)
	case keyboard.CommandSeekBackward:
		p.seek(-1)
	case keyboard.CommandSeekForward:
		p.seek(1)
	}
}

func (p *Player) setVolume(v int) {
	p.volume = min(max(v, 0), 100)
	if p.Audio != nil {
		p.Audio.SetVolume(p.volume)
	}
}

// SeekTarget returns the clamped target of a seek from current by dir
// steps of seekFrames frames. The window is [start, end-1s].
func SeekTarget(current float64, dir, seekFrames int, fps, start, end float64) float64 {
	t := current + float64(dir*seekFrames)/fps

	return min(max(t, start), max(end-1, start))
}

func (p *Player) seek(dir int) {
	if p.status.End <= p.status.Start {
		return
	}

	t := SeekTarget(p.current, dir, max(p.cfg.SeekFrames, 1), p.cfg.FPS, p.status.Start, p.status.End)

	if !p.Source.Seek(t) {
		return
	}

	p.current = t

	if p.Audio != nil {
		p.Audio.Seek(t)
	}
}

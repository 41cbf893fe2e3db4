package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.jacobcolvin.com/glyphcast/buffer"
	"go.jacobcolvin.com/glyphcast/raster"
)

// Source delivers decoded frames to the render loop.
type Source interface {
	// Next blocks for the next frame; false means end of stream.
	Next() (buffer.DecodedFrame, bool)
	// Seek requests a jump to t seconds and reports whether the source
	// supports seeking.
	Seek(t float64) bool
	// SeekPending reports whether a requested seek has not completed.
	SeekPending() bool
	Close()
}

// VideoOpener starts a decoder at start seconds.
type VideoOpener func(ctx context.Context, start float64) (buffer.FrameSource, error)

// Geometry is the size and format of decoded frames.
type Geometry struct {
	Format raster.Format
	Width  int
	Height int
}

// StreamSource reads frames through a [buffer.ReadAhead] without seeking.
// It serves live cameras and non-interactive playback.
type StreamSource struct {
	ra     *buffer.ReadAhead
	geom   Geometry
	fps    float64
	first  int
	frames int
}

// NewStreamSource starts reading src. Frame numbers begin at firstFrame.
func NewStreamSource(src buffer.FrameSource, geom Geometry, fps float64, slots, firstFrame int) *StreamSource {
	ra := buffer.NewReadAhead(src, slots)
	ra.Start()

	return &StreamSource{ra: ra, geom: geom, fps: fps, first: firstFrame}
}

// Next implements [Source]. The returned pixels are valid until the
// following call.
func (s *StreamSource) Next() (buffer.DecodedFrame, bool) {
	pix := s.ra.Next()
	if pix == nil {
		return buffer.DecodedFrame{}, false
	}

	n := s.first + s.frames
	s.frames++

	return buffer.DecodedFrame{
		Frame: &raster.Frame{
			Pix:    pix,
			Width:  s.geom.Width,
			Height: s.geom.Height,
			Format: s.geom.Format,
		},
		Number:    n,
		Timestamp: float64(n) / s.fps,
	}, true
}

// Seek implements [Source]; streams cannot seek.
func (s *StreamSource) Seek(float64) bool { return false }

// SeekPending implements [Source].
func (s *StreamSource) SeekPending() bool { return false }

// Close implements [Source].
func (s *StreamSource) Close() {
	s.ra.Stop()
}

// SeekableSource feeds a [buffer.FrameBuffer] from a decoder goroutine that
// restarts the decoder on every seek.
type SeekableSource struct {
	buf    *buffer.FrameBuffer
	open   VideoOpener
	cancel context.CancelFunc
	logger *slog.Logger
	geom   Geometry
	wg     sync.WaitGroup
}

// SeekableOptions configure a [SeekableSource].
type SeekableOptions struct {
	Logger *slog.Logger
	Geom   Geometry
	FPS    float64
	Start  float64
	Ahead  int
	Behind int
}

// NewSeekableSource starts decoding at o.Start.
func NewSeekableSource(ctx context.Context, open VideoOpener, o SeekableOptions) *SeekableSource {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &SeekableSource{
		buf:    buffer.NewFrameBuffer(o.FPS, o.Ahead, o.Behind, buffer.FrameNumber(max(o.Start, 0), o.FPS)),
		open:   open,
		cancel: cancel,
		logger: logger,
		geom:   o.Geom,
	}

	s.wg.Go(func() {
		err := s.decode(ctx, max(o.Start, 0))
		if err != nil {
			logger.ErrorContext(ctx, "video decoder stopped", slog.Any("err", err))
		}
	})

	return s
}

func (s *SeekableSource) decode(ctx context.Context, start float64) error {
	defer s.buf.Finish()

	src, err := s.open(ctx, start)
	if err != nil {
		return err
	}

	defer func() {
		//nolint:errcheck // Best-effort decoder shutdown.
		src.Close()
	}()

	run := 0

	for ctx.Err() == nil {
		if t, ok := s.buf.TakeSeek(); ok {
			//nolint:errcheck // The old decoder is discarded.
			src.Close()

			src, err = s.open(ctx, t)
			if err != nil {
				return fmt.Errorf("restarting video at %.2fs: %w", t, err)
			}

			run = 0
			s.buf.CompleteSeek(buffer.FrameNumber(t, s.buf.FPS()))
			s.logger.DebugContext(ctx, "video repositioned", slog.Float64("time", t))

			continue
		}

		f := raster.New(s.geom.Width, s.geom.Height, s.geom.Format)

		err := src.ReadFrame(f.Pix)
		if err != nil {
			s.buf.Finish()

			if !s.buf.WaitSeek() {
				return nil
			}

			continue
		}

		if s.buf.Push(f, run) {
			run++
		}
	}

	return nil
}

// Next implements [Source].
func (s *SeekableSource) Next() (buffer.DecodedFrame, bool) {
	return s.buf.Pop()
}

// Seek implements [Source].
func (s *SeekableSource) Seek(t float64) bool {
	s.buf.RequestSeek(t)

	return true
}

// SeekPending implements [Source].
func (s *SeekableSource) SeekPending() bool {
	return s.buf.SeekPending()
}

// Close implements [Source].
func (s *SeekableSource) Close() {
	s.buf.Close()
	s.cancel()
	s.wg.Wait()
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"go.jacobcolvin.com/glyphcast/raster"
)

// VideoOptions describe the raw frames a decoder should produce.
type VideoOptions struct {
	Format raster.Format
	Width  int
	Height int
	// FPS resamples the stream; 0 keeps the source rate.
	FPS float64
	// Start and End trim the stream in seconds; negative values are unset.
	Start float64
	End   float64
}

// FrameSize returns the byte size of one decoded frame.
func (o VideoOptions) FrameSize() int {
	return raster.FrameSize(o.Width, o.Height, o.Format)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// trimArgs returns -ss/-t input options for a file source.
func trimArgs(src Source, start, end float64) []string {
	if src.Live {
		return nil
	}

	return TrimArgs(start, end)
}

// TrimArgs returns the ffmpeg input options that select [start, end)
// seconds. Negative or zero bounds leave that side open.
func TrimArgs(start, end float64) []string {
	var args []string

	if start > 0 {
		args = append(args, "-ss", formatSeconds(start))
	}

	if end > 0 && end > max(start, 0) {
		args = append(args, "-t", formatSeconds(end-max(start, 0)))
	}

	return args
}

// VideoArgs returns the ffmpeg arguments that decode src into raw frames
// on stdout.
func VideoArgs(src Source, o VideoOptions) []string {
	args := []string{"-nostdin", "-v", "error"}
	args = append(args, trimArgs(src, o.Start, o.End)...)
	args = append(args, src.inputArgs()...)

	vf := "scale=" + strconv.Itoa(o.Width) + ":" + strconv.Itoa(o.Height)
	if o.FPS > 0 {
		vf = "fps=" + strconv.FormatFloat(o.FPS, 'f', -1, 64) + "," + vf
	}

	return append(args,
		"-an",
		"-vf", vf,
		"-pix_fmt", o.Format.String(),
		"-f", "rawvideo",
		"pipe:1",
	)
}

// process owns an ffmpeg child writing to a pipe.
type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
}

func startProcess(ctx context.Context, bin string, args []string) (*process, error) {
	path, err := lookPath(bin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	//nolint:gosec // Arguments are built from CLI input, not untrusted data.
	cmd := exec.CommandContext(ctx, path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("starting %s: %w", bin, err)
	}

	return &process{cmd: cmd, stdout: stdout, cancel: cancel}, nil
}

// stop cancels the process and waits for it to exit.
func (p *process) stop() {
	p.cancel()
	//nolint:errcheck // Error is expected after context cancellation.
	p.cmd.Wait()
}

// FrameStream yields fixed-size raw frames from a reader.
type FrameStream struct {
	r       io.Reader
	proc    *process
	options VideoOptions
}

// NewFrameStream wraps r, which must deliver frames of o.FrameSize() bytes.
func NewFrameStream(r io.Reader, o VideoOptions) *FrameStream {
	return &FrameStream{r: r, options: o}
}

// OpenVideo starts ffmpeg decoding src and returns the stream of its
// frames.
func (t Tools) OpenVideo(ctx context.Context, src Source, o VideoOptions) (*FrameStream, error) {
	if o.Width <= 0 || o.Height <= 0 || o.Format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("%w: %dx%d %v", raster.ErrSize, o.Width, o.Height, o.Format)
	}

	p, err := startProcess(ctx, t.FFmpeg, VideoArgs(src, o))
	if err != nil {
		return nil, err
	}

	return &FrameStream{r: p.stdout, proc: p, options: o}, nil
}

// Options returns the stream geometry.
func (s *FrameStream) Options() VideoOptions {
	return s.options
}

// FrameSize returns the byte size of one frame.
func (s *FrameStream) FrameSize() int {
	return s.options.FrameSize()
}

// ReadFrame fills buf, which must be FrameSize bytes, with the next frame.
// Any short read, including a decoder crash, is reported as [io.EOF].
func (s *FrameStream) ReadFrame(buf []byte) error {
	if len(buf) != s.FrameSize() {
		return fmt.Errorf("%w: buffer of %d bytes for %d byte frames", raster.ErrSize, len(buf), s.FrameSize())
	}

	_, err := io.ReadFull(s.r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return io.EOF
	}

	if err != nil {
		return io.EOF
	}

	return nil
}

// Close stops the decoder.
func (s *FrameStream) Close() error {
	if s.proc != nil {
		s.proc.stop()
	}

	return nil
}

// ScaledSize returns the decode size for a source of srcW×srcH pixels shown
// maxWidth cells wide with cells of dotsX×dotsY pixels. The width fills the
// cells exactly and the height keeps the aspect ratio, rounded up to whole
// cell rows.
func ScaledSize(srcW, srcH, maxWidth, dotsX, dotsY int) (int, int) {
	w := max(maxWidth, 1) * max(dotsX, 1)
	if srcW <= 0 || srcH <= 0 {
		return w, max(dotsY, 1)
	}

	h := (w*srcH + srcW/2) / srcW
	dy := max(dotsY, 1)
	h = max((h+dy-1)/dy*dy, dy)

	return w, h
}

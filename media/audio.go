package media

import (
	"context"
	"fmt"
	"io"
	"strconv"
)

// PCM layout produced by [Tools.OpenAudio].
const (
	SampleRate     = 44100
	Channels       = 2
	BytesPerSample = 2
	// BytesPerFrame is the size of one interleaved sample frame.
	BytesPerFrame = Channels * BytesPerSample
)

// AudioArgs returns the ffmpeg arguments that decode the audio track of
// path into interleaved signed 16-bit little-endian PCM on stdout.
func AudioArgs(path string, start, end float64) []string {
	args := []string{"-nostdin", "-v", "error"}
	args = append(args, trimArgs(FileSource(path), start, end)...)

	return append(args,
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"pipe:1",
	)
}

// PCMStream reads PCM bytes from a decoder.
type PCMStream struct {
	r    io.Reader
	proc *process
}

// NewPCMStream wraps r.
func NewPCMStream(r io.Reader) *PCMStream {
	return &PCMStream{r: r}
}

// OpenAudio starts ffmpeg decoding the audio track of path from start to
// end seconds (negative values are unset).
func (t Tools) OpenAudio(ctx context.Context, path string, start, end float64) (*PCMStream, error) {
	p, err := startProcess(ctx, t.FFmpeg, AudioArgs(path, start, end))
	if err != nil {
		return nil, fmt.Errorf("decoding audio: %w", err)
	}

	return &PCMStream{r: p.stdout, proc: p}, nil
}

// ReadChunk fills buf with whole sample frames, up to len(buf) bytes. It
// returns [io.EOF] once the decoder has nothing more; a trailing partial
// sample frame is dropped.
func (s *PCMStream) ReadChunk(buf []byte) (int, error) {
	buf = buf[:len(buf)-len(buf)%BytesPerFrame]

	n, err := io.ReadFull(s.r, buf)
	n -= n % BytesPerFrame

	if n > 0 {
		return n, nil
	}

	if err != nil {
		return 0, io.EOF
	}

	return 0, nil
}

// Close stops the decoder.
func (s *PCMStream) Close() error {
	if s.proc != nil {
		s.proc.stop()
	}

	return nil
}

// BytesAt returns the PCM byte offset of t seconds.
func BytesAt(t float64) int {
	return int(t*SampleRate) * BytesPerFrame
}

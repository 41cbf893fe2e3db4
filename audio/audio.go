// Package audio plays PCM from a [buffer.AudioBuffer] on the system audio
// device and keeps the buffer fed from a seekable decoder.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"go.jacobcolvin.com/glyphcast/buffer"
	"go.jacobcolvin.com/glyphcast/media"
)

// ChunkSize is the number of PCM bytes read from the decoder per chunk.
const ChunkSize = 4096

// Format is the sample format delivered by the decoder.
var Format = beep.Format{
	SampleRate:  media.SampleRate,
	NumChannels: media.Channels,
	Precision:   media.BytesPerSample,
}

// Streamer adapts an [buffer.AudioBuffer] to [beep.Streamer]. Starvation,
// pause and pending seeks produce silence; the stream never ends on its
// own.
type Streamer struct {
	buf *buffer.AudioBuffer
	pcm []byte
}

// NewStreamer returns a streamer over buf.
func NewStreamer(buf *buffer.AudioBuffer) *Streamer {
	return &Streamer{buf: buf}
}

// Stream implements [beep.Streamer].
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	need := len(samples) * media.BytesPerFrame
	if cap(s.pcm) < need {
		s.pcm = make([]byte, need)
	}

	pcm := s.pcm[:need]
	n := s.buf.Fill(pcm)
	clear(pcm[n:])

	for i := range samples {
		l := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		samples[i][0] = float64(l) / (1 << 15)
		samples[i][1] = float64(r) / (1 << 15)
	}

	return len(samples), true
}

// Err implements [beep.Streamer].
func (s *Streamer) Err() error {
	return nil
}

// Device is an audio output.
type Device interface {
	Play(s beep.Streamer) error
	Close()
}

// Speaker plays through the default system device.
type Speaker struct {
	// Latency is the device buffer length.
	Latency time.Duration
}

// Play implements [Device].
func (d *Speaker) Play(s beep.Streamer) error {
	latency := d.Latency
	if latency <= 0 {
		latency = 100 * time.Millisecond
	}

	err := speaker.Init(Format.SampleRate, Format.SampleRate.N(latency))
	if err != nil {
		return fmt.Errorf("initializing audio device: %w", err)
	}

	speaker.Play(s)

	return nil
}

// Close implements [Device].
func (d *Speaker) Close() {
	speaker.Clear()
	speaker.Close()
}

// PCMReader is a decoded PCM stream.
type PCMReader interface {
	ReadChunk(buf []byte) (int, error)
	Close() error
}

// Opener starts a PCM decoder at start seconds.
type Opener func(ctx context.Context, start float64) (PCMReader, error)

// FileOpener decodes the audio track of path with ffmpeg, stopping at end
// seconds when end is positive.
func FileOpener(tools media.Tools, path string, end float64) Opener {
	return func(ctx context.Context, start float64) (PCMReader, error) {
		return tools.OpenAudio(ctx, path, start, end)
	}
}

// Decoder keeps an [buffer.AudioBuffer] filled and services its seek
// requests by restarting the decoder.
type Decoder struct {
	Open   Opener
	Buffer *buffer.AudioBuffer
	Logger *slog.Logger
}

// Run decodes until ctx is done or the buffer closes. A decoder failure
// leaves playback silent.
func (d *Decoder) Run(ctx context.Context, start float64) error {
	r, err := d.Open(ctx, start)
	if err != nil {
		return err
	}

	defer func() {
		//nolint:errcheck // Best-effort decoder shutdown.
		r.Close()
	}()

	pos := start
	chunk := make([]byte, ChunkSize)

	for ctx.Err() == nil {
		if t, ok := d.Buffer.TakeSeek(); ok {
			//nolint:errcheck // The old decoder is discarded.
			r.Close()

			r, err = d.Open(ctx, t)
			if err != nil {
				return fmt.Errorf("restarting audio at %.2fs: %w", t, err)
			}

			pos = t
			d.Buffer.CompleteSeek()
			d.logger().DebugContext(ctx, "audio repositioned", slog.Float64("time", t))

			continue
		}

		n, err := r.ReadChunk(chunk)
		if err != nil {
			if !d.Buffer.WaitSeek() {
				return nil
			}

			continue
		}

		data := make([]byte, n)
		copy(data, chunk[:n])

		if d.Buffer.Push(buffer.Chunk{Data: data, Timestamp: pos}) {
			pos += float64(n) / float64(media.BytesAt(1))
		} else if d.Buffer.Closed() {
			return nil
		}
	}

	return nil
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}

	return d.Logger
}

package audio

import (
	"context"
	"log/slog"
	"sync"

	"go.jacobcolvin.com/glyphcast/buffer"
)

// Player couples a decoder, an [buffer.AudioBuffer] and a [Device].
type Player struct {
	buf     *buffer.AudioBuffer
	dec     *Decoder
	device  Device
	cancel  context.CancelFunc
	logger  *slog.Logger
	wg      sync.WaitGroup
	started bool
}

// NewPlayer returns a player decoding with open and playing on device at
// the given volume.
func NewPlayer(open Opener, device Device, volume int, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	buf := buffer.NewAudioBuffer(0, volume)

	return &Player{
		buf:    buf,
		dec:    &Decoder{Open: open, Buffer: buf, Logger: logger},
		device: device,
		logger: logger,
	}
}

// Start opens the device and starts decoding at start seconds. When the
// device cannot be opened nothing is started and the error is returned,
// so the caller can continue without sound.
func (p *Player) Start(ctx context.Context, start float64) error {
	err := p.device.Play(NewStreamer(p.buf))
	if err != nil {
		return err
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	p.wg.Go(func() {
		err := p.dec.Run(ctx, start)
		if err != nil {
			p.logger.WarnContext(ctx, "audio decoder stopped", slog.Any("err", err))
		}
	})

	return nil
}

// SetPaused silences the device without consuming audio.
func (p *Player) SetPaused(paused bool) {
	p.buf.SetPaused(paused)
}

// SetVolume sets the volume (0-100).
func (p *Player) SetVolume(v int) {
	p.buf.SetVolume(v)
}

// Seek repositions the audio decoder to t seconds.
func (p *Player) Seek(t float64) {
	p.buf.RequestSeek(t)
}

// Buffer returns the underlying queue.
func (p *Player) Buffer() *buffer.AudioBuffer {
	return p.buf
}

// Close stops decoding and releases the device.
func (p *Player) Close() {
	p.buf.Close()

	if !p.started {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.device.Close()
}

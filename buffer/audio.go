package buffer

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
)

// DefaultAudioBytes caps the PCM queued ahead of the device: about two
// seconds of 44.1 kHz stereo 16-bit audio.
const DefaultAudioBytes = 2 * 44100 * 4

// Chunk is a run of interleaved signed 16-bit little-endian samples.
type Chunk struct {
	Data      []byte
	Timestamp float64
}

// AudioBuffer queues PCM chunks between a decoder and the audio device.
// Volume is applied when the device pulls samples, so changes are heard
// immediately.
type AudioBuffer struct {
	notFull   *sync.Cond
	chunks    []Chunk
	leftover  []byte
	seekTime  float64
	maxBytes  int
	queued    int
	volume    atomic.Int32
	paused    atomic.Bool
	mu        sync.Mutex
	requested bool
	seeking   bool
	closed    bool
}

// NewAudioBuffer returns a buffer holding up to maxBytes of queued PCM at
// the given volume (0-100). maxBytes below 1 uses [DefaultAudioBytes].
func NewAudioBuffer(maxBytes, volume int) *AudioBuffer {
	if maxBytes < 1 {
		maxBytes = DefaultAudioBytes
	}

	b := &AudioBuffer{maxBytes: maxBytes}
	b.notFull = sync.NewCond(&b.mu)
	b.SetVolume(volume)

	return b
}

// SetVolume sets the volume, clamped to 0-100.
func (b *AudioBuffer) SetVolume(v int) {
	b.volume.Store(int32(min(max(v, 0), 100)))
}

// Volume returns the current volume.
func (b *AudioBuffer) Volume() int {
	return int(b.volume.Load())
}

// SetPaused makes [AudioBuffer.Fill] emit silence without consuming
// queued audio.
func (b *AudioBuffer) SetPaused(p bool) {
	b.paused.Store(p)
}

// Push queues c, blocking while the queue is full. It reports false when
// the chunk was dropped because a seek is pending or the buffer is closed.
func (b *AudioBuffer) Push(c Chunk) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.seeking && !b.closed && b.queued >= b.maxBytes {
		b.notFull.Wait()
	}

	if b.seeking || b.closed {
		return false
	}

	b.chunks = append(b.chunks, c)
	b.queued += len(c.Data)

	return true
}

// Fill copies queued PCM into dst, applying the volume, and returns the
// number of bytes written. It never blocks on the producer; the caller
// treats the unfilled tail as silence. A partial chunk is kept for the
// next call.
func (b *AudioBuffer) Fill(dst []byte) int {
	if b.paused.Load() {
		return 0
	}

	b.mu.Lock()

	if b.seeking {
		b.mu.Unlock()

		return 0
	}

	n := copy(dst, b.leftover)
	b.leftover = b.leftover[n:]

	for n < len(dst) && len(b.chunks) > 0 {
		c := b.chunks[0]
		b.chunks[0] = Chunk{}
		b.chunks = b.chunks[1:]

		m := copy(dst[n:], c.Data)
		n += m

		if m < len(c.Data) {
			b.leftover = c.Data[m:]
		}
	}

	b.queued -= n
	b.notFull.Signal()
	b.mu.Unlock()

	ScaleVolume(dst[:n], b.Volume())

	return n
}

// ScaleVolume multiplies every 16-bit little-endian sample in pcm by v/100.
func ScaleVolume(pcm []byte, v int) {
	if v >= 100 {
		return
	}

	for i := 0; i+1 < len(pcm); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(pcm[i:])))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(s*int32(v)/100)))
	}
}

// Queued returns the number of bytes waiting, including any leftover.
func (b *AudioBuffer) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.queued
}

// RequestSeek asks the decoder to reposition to t seconds.
func (b *AudioBuffer) RequestSeek(t float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requested = true
	b.seeking = true
	b.seekTime = t
	b.notFull.Broadcast()
}

// TakeSeek returns and clears the pending seek time.
func (b *AudioBuffer) TakeSeek() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.requested {
		return 0, false
	}

	b.requested = false

	return b.seekTime, true
}

// CompleteSeek drops all queued audio, including the leftover.
func (b *AudioBuffer) CompleteSeek() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.chunks)
	b.chunks = b.chunks[:0]
	b.leftover = nil
	b.queued = 0
	b.seeking = b.requested
	b.notFull.Broadcast()
}

// SeekPending reports whether a seek has been requested and not completed.
func (b *AudioBuffer) SeekPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.seeking
}

// WaitSeek blocks the decoder after end of stream until a seek is requested
// or the buffer closes. It reports whether a seek is pending.
func (b *AudioBuffer) WaitSeek() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.requested && !b.closed {
		b.notFull.Wait()
	}

	return b.requested && !b.closed
}

// Closed reports whether Close was called.
func (b *AudioBuffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// Close stops the producer side.
func (b *AudioBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.notFull.Broadcast()
}

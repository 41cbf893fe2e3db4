package buffer

import (
	"math"
	"sync"

	"go.jacobcolvin.com/glyphcast/raster"
)

// Minimum window sizes of a [FrameBuffer].
const (
	MinAhead  = 10
	MinBehind = 10
)

// DecodedFrame is a frame stamped with its absolute position in the media.
type DecodedFrame struct {
	Frame     *raster.Frame
	Number    int
	Timestamp float64
}

// FrameNumber returns the absolute frame number of t seconds at fps.
func FrameNumber(t, fps float64) int {
	return int(math.Round(t * fps))
}

// FrameBuffer is a seekable sliding window of decoded frames. Frames ahead
// of the playhead are capped at maxAhead; frames behind it are kept up to
// maxBehind.
type FrameBuffer struct {
	notFull   *sync.Cond
	notEmpty  *sync.Cond
	frames    []DecodedFrame
	fps       float64
	maxAhead  int
	maxBehind int
	offset    int
	current   int
	seekTime  float64
	mu        sync.Mutex
	requested bool
	seeking   bool
	finished  bool
	closed    bool
}

// NewFrameBuffer returns a window for a stream at fps whose first frame is
// startFrame. Window sizes below the minimums are raised.
func NewFrameBuffer(fps float64, maxAhead, maxBehind, startFrame int) *FrameBuffer {
	b := &FrameBuffer{
		fps:       fps,
		maxAhead:  max(maxAhead, MinAhead),
		maxBehind: max(maxBehind, MinBehind),
		offset:    startFrame,
		current:   startFrame,
	}

	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)

	return b
}

// ahead returns the number of frames at or past the playhead.
func (b *FrameBuffer) ahead() int {
	n := 0

	for i := len(b.frames) - 1; i >= 0 && b.frames[i].Number >= b.current; i-- {
		n++
	}

	return n
}

// Push adds a frame numbered from the start of the current decoder run. It
// blocks while the window ahead is full. It reports false when the frame
// was dropped because a seek is pending or the buffer is closed.
func (b *FrameBuffer) Push(f *raster.Frame, runIndex int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.seeking && !b.closed && b.ahead() >= b.maxAhead {
		b.notFull.Wait()
	}

	if b.seeking || b.closed {
		return false
	}

	n := b.offset + runIndex
	b.frames = append(b.frames, DecodedFrame{
		Frame:     f,
		Number:    n,
		Timestamp: float64(n) / b.fps,
	})
	b.notEmpty.Signal()

	return true
}

// Pop blocks for the next frame at or past the playhead, advances the
// playhead past it and evicts frames that fell out of the window behind.
// It reports false when the stream has finished or the buffer is closed.
func (b *FrameBuffer) Pop() (DecodedFrame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if b.closed {
			return DecodedFrame{}, false
		}

		if !b.seeking {
			for _, f := range b.frames {
				if f.Number < b.current {
					continue
				}

				b.current = f.Number + 1
				b.evict()
				b.notFull.Signal()

				return f, true
			}

			if b.finished {
				return DecodedFrame{}, false
			}
		}

		b.notEmpty.Wait()
	}
}

func (b *FrameBuffer) evict() {
	keep := b.current - b.maxBehind

	i := 0
	for i < len(b.frames) && b.frames[i].Number < keep {
		i++
	}

	if i > 0 {
		b.frames = append(b.frames[:0], b.frames[i:]...)
	}
}

// RequestSeek asks the decoder to reposition to t seconds and wakes both
// sides.
func (b *FrameBuffer) RequestSeek(t float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requested = true
	b.seeking = true
	b.seekTime = t
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// TakeSeek returns and clears the pending seek time. The buffer stays in
// the seeking state until [FrameBuffer.CompleteSeek].
func (b *FrameBuffer) TakeSeek() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.requested {
		return 0, false
	}

	b.requested = false

	return b.seekTime, true
}

// CompleteSeek empties the window and restarts numbering at startFrame.
func (b *FrameBuffer) CompleteSeek(startFrame int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.frames)
	b.frames = b.frames[:0]
	b.offset = startFrame
	b.current = startFrame
	b.finished = false

	// A newer request arrived while repositioning: stay in the seeking
	// state so the decoder handles it next.
	b.seeking = b.requested
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// SeekPending reports whether a seek has been requested and not completed.
func (b *FrameBuffer) SeekPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.seeking
}

// WaitSeek blocks the decoder after end of stream until a seek is requested
// or the buffer closes. It reports whether a seek is pending.
func (b *FrameBuffer) WaitSeek() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.requested && !b.closed {
		b.notFull.Wait()
	}

	return b.requested && !b.closed
}

// Finish marks the end of the decoder run and wakes the consumer.
func (b *FrameBuffer) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finished = true
	b.notEmpty.Broadcast()
}

// Close stops both sides; Push and Pop return false from then on.
func (b *FrameBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// Current returns the number of the next frame Pop will look for.
func (b *FrameBuffer) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current
}

// Len returns the number of frames held, behind and ahead.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.frames)
}

// FPS returns the frame rate used for timestamps.
func (b *FrameBuffer) FPS() float64 {
	return b.fps
}

package buffer

import (
	"sync"
)

// FrameSource is a blocking source of fixed-size frames. ReadFrame returns
// an error at end of stream; Close unblocks a pending ReadFrame.
type FrameSource interface {
	FrameSize() int
	ReadFrame(buf []byte) error
	Close() error
}

// DefaultSlots is the default ring size of a [ReadAhead].
const DefaultSlots = 8

// ReadAhead decouples a [FrameSource] from its reader with a ring of slots
// filled by a producer goroutine.
type ReadAhead struct {
	src     FrameSource
	notFull *sync.Cond
	ready   *sync.Cond
	slots   [][]byte
	display []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	head    int
	count   int
	frames  int
	eos     bool
	stopped bool
}

// NewReadAhead returns a ring of n slots over src. n below 1 uses
// [DefaultSlots].
func NewReadAhead(src FrameSource, n int) *ReadAhead {
	if n < 1 {
		n = DefaultSlots
	}

	size := src.FrameSize()
	r := &ReadAhead{
		src:     src,
		slots:   make([][]byte, n),
		display: make([]byte, size),
	}

	for i := range r.slots {
		r.slots[i] = make([]byte, size)
	}

	r.notFull = sync.NewCond(&r.mu)
	r.ready = sync.NewCond(&r.mu)

	return r
}

// Start launches the producer goroutine.
func (r *ReadAhead) Start() {
	r.wg.Go(r.produce)
}

func (r *ReadAhead) produce() {
	for {
		r.mu.Lock()

		for r.count == len(r.slots) && !r.stopped {
			r.notFull.Wait()
		}

		if r.stopped {
			r.mu.Unlock()

			return
		}

		slot := r.slots[(r.head+r.count)%len(r.slots)]
		r.mu.Unlock()

		// The slot is outside the filled range, so the reader never touches
		// it while the decoder writes.
		err := r.src.ReadFrame(slot)

		r.mu.Lock()

		if err != nil {
			r.eos = true
			r.ready.Broadcast()
			r.mu.Unlock()

			return
		}

		r.count++
		r.ready.Signal()
		r.mu.Unlock()
	}
}

// Next blocks until a frame is available and returns it in the display
// buffer, which stays valid until the following call. It returns nil once
// the stream has ended and the ring is drained, or after [ReadAhead.Stop].
func (r *ReadAhead) Next() []byte {
	r.mu.Lock()

	for r.count == 0 && !r.eos && !r.stopped {
		r.ready.Wait()
	}

	if r.stopped || r.count == 0 {
		r.mu.Unlock()

		return nil
	}

	slot := r.slots[r.head]
	r.mu.Unlock()

	copy(r.display, slot)

	r.mu.Lock()
	r.head = (r.head + 1) % len(r.slots)
	r.count--
	r.frames++
	r.notFull.Signal()
	r.mu.Unlock()

	return r.display
}

// Frames returns the number of frames delivered by Next.
func (r *ReadAhead) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.frames
}

// FrameSize returns the slot size.
func (r *ReadAhead) FrameSize() int {
	return len(r.display)
}

// Stop ends production, closes the source and waits for the producer.
// Subsequent calls to Next return nil.
func (r *ReadAhead) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.notFull.Broadcast()
	r.ready.Broadcast()
	r.mu.Unlock()

	//nolint:errcheck // Closing only unblocks the producer.
	r.src.Close()
	r.wg.Wait()
}

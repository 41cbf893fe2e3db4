package log

import (
	"fmt"
	"io"
	"sync"
)

const defaultHoldLimit = 1024

// Forwarder copies entries from a [Publisher] to a writer. While held,
// entries are queued in memory (oldest dropped past the limit) and written
// on [Forwarder.Release].
//
// Create instances with [NewForwarder].
type Forwarder struct {
	w       io.Writer
	pub     *Publisher
	sub     *Subscription
	done    chan struct{}
	held    [][]byte
	limit   int
	dropped int
	mu      sync.Mutex
	holding bool
}

// NewForwarder subscribes to pub and starts writing its entries to w.
func NewForwarder(pub *Publisher, w io.Writer) *Forwarder {
	f := &Forwarder{
		w:     w,
		pub:   pub,
		sub:   pub.Subscribe(),
		done:  make(chan struct{}),
		limit: defaultHoldLimit,
	}

	go f.run()

	return f
}

func (f *Forwarder) run() {
	defer close(f.done)

	for entry := range f.sub.C() {
		f.deliver(entry)
	}
}

func (f *Forwarder) deliver(entry []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.holding {
		//nolint:errcheck // Nowhere to report a failed log write.
		f.w.Write(entry)

		return
	}

	if len(f.held) >= f.limit {
		f.held = f.held[1:]
		f.dropped++
	}

	f.held = append(f.held, entry)
}

// Hold starts queueing entries instead of writing them.
func (f *Forwarder) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.holding = true
}

// Held returns the number of queued entries.
func (f *Forwarder) Held() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.held)
}

// Release writes the queued entries and resumes direct forwarding.
func (f *Forwarder) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.holding = false

	dropped := f.dropped + f.sub.TakeDropped()
	if dropped > 0 {
		//nolint:errcheck // Nowhere to report a failed log write.
		fmt.Fprintf(f.w, "(%d earlier log entries dropped)\n", dropped)
	}

	for _, entry := range f.held {
		//nolint:errcheck // Nowhere to report a failed log write.
		f.w.Write(entry)
	}

	f.held = nil
	f.dropped = 0
}

// Close releases queued entries, closes the publisher and waits until every
// published entry has been written.
func (f *Forwarder) Close() {
	f.Release()

	//nolint:errcheck // Publisher.Close never fails.
	f.pub.Close()

	<-f.done
}

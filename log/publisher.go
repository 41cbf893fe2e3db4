package log

import (
	"slices"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64

// Publisher is an [io.Writer] that hands each written log entry to every
// [Subscription]. Writes never block: a subscriber that falls behind loses
// its oldest queued entry, which is counted in [Subscription.Dropped].
//
// Create instances with [NewPublisher].
type Publisher struct {
	subs    []*Subscription
	bufSize int
	mu      sync.Mutex
	closed  bool
}

// NewPublisher creates a [Publisher]. Subscriptions queue 64 entries unless
// [WithBufferSize] says otherwise.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{bufSize: defaultBufferSize}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PublisherOption configures a [Publisher].
type PublisherOption func(*Publisher)

// WithBufferSize sets the queue length of new subscriptions, at least 1.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = max(n, 1)
	}
}

// Write queues a copy of b on every subscription. It always returns
// len(b), nil; entries written after [Publisher.Close] are discarded.
func (p *Publisher) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.subs) == 0 {
		return len(b), nil
	}

	entry := slices.Clone(b)
	for _, s := range p.subs {
		s.push(entry)
	}

	return len(b), nil
}

// Subscribe returns a new [Subscription]. Subscribing to a closed
// Publisher yields a subscription whose channel is already closed.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &Subscription{pub: p, ch: make(chan []byte, p.bufSize)}
	if p.closed {
		close(s.ch)

		return s
	}

	p.subs = append(p.subs, s)

	return s
}

// Subscribers returns the number of open subscriptions.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.subs)
}

// Close closes every subscription channel. Later calls do nothing.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	for _, s := range p.subs {
		close(s.ch)
	}

	p.subs = nil

	return nil
}

// remove unsubscribes s and closes its channel.
func (p *Publisher) remove(s *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.Index(p.subs, s)
	if i < 0 {
		return
	}

	p.subs = slices.Delete(p.subs, i, i+1)
	close(s.ch)
}

// Subscription receives entries from a [Publisher].
type Subscription struct {
	pub     *Publisher
	ch      chan []byte
	dropped atomic.Int64
}

// push queues entry, evicting the oldest one when the queue is full. The
// publisher lock serialises pushes.
func (s *Subscription) push(entry []byte) {
	select {
	case s.ch <- entry:
		return
	default:
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.ch <- entry:
	default:
		s.dropped.Add(1)
	}
}

// C returns the channel of queued entries. It is closed when the
// subscription or the publisher is closed. Entries must not be modified.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Dropped returns the number of entries evicted because the queue was
// full.
func (s *Subscription) Dropped() int {
	return int(s.dropped.Load())
}

// TakeDropped returns the eviction count and resets it.
func (s *Subscription) TakeDropped() int {
	return int(s.dropped.Swap(0))
}

// Close unsubscribes and closes the channel. Later calls do nothing.
func (s *Subscription) Close() {
	s.pub.remove(s)
}

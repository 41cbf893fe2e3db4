package player

import (
	"time"
)

// Clock abstracts time for pacing.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Pacer schedules frames at absolute deadlines: the n-th deadline is the
// start plus n periods, so sleep jitter never accumulates.
type Pacer struct {
	clock  Clock
	next   time.Time
	period time.Duration
	skips  int
}

// NewPacer returns a pacer whose first deadline is one period from now.
func NewPacer(clock Clock, period time.Duration) *Pacer {
	p := &Pacer{clock: clock, period: period}
	p.Reset()

	return p
}

// Reset schedules the next deadline one period from now. It is used after
// a pause so playback resumes without a burst.
func (p *Pacer) Reset() {
	p.next = p.clock.Now().Add(p.period)
}

// Wait sleeps until the current deadline and advances it by one period.
// When the caller has fallen behind the new deadline, the deadline snaps
// forward by whole periods instead of letting frames catch up in a burst.
func (p *Pacer) Wait() {
	now := p.clock.Now()
	if d := p.next.Sub(now); d > 0 {
		p.clock.Sleep(d)
	}

	p.next = p.next.Add(p.period)

	now = p.clock.Now()
	if behind := now.Sub(p.next); behind > 0 {
		n := (behind + p.period - 1) / p.period
		p.next = p.next.Add(n * p.period)
		p.skips += int(n)
	}
}

// Deadline returns the next deadline.
func (p *Pacer) Deadline() time.Time {
	return p.next
}

// Skipped returns the number of periods skipped by snapping forward.
func (p *Pacer) Skipped() int {
	return p.skips
}

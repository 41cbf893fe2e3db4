// Package progress reports the phases of a long running export.
//
// [Reporter] is implemented by [TUI], a bubbletea program for interactive
// terminals, by [Bar], a plain progress bar for logs and pipes, and by
// [Nop]. All implementations are safe for concurrent use by worker
// goroutines.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives export progress.
type Reporter interface {
	// Phase starts a named phase. A total of zero or less is
	// indeterminate.
	Phase(name string, total int)
	// SetTotal makes the current phase determinate.
	SetTotal(total int)
	// Add records n completed units.
	Add(n int)
	// Close ends reporting.
	Close()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Phase(string, int) {}
func (Nop) SetTotal(int)      {}
func (Nop) Add(int)           {}
func (Nop) Close()            {}

// Bar reports with a textual progress bar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
	mu  sync.Mutex
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Phase implements [Reporter].
func (b *Bar) Phase(name string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finish()

	if total <= 0 {
		total = -1
	}

	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			//nolint:errcheck // Progress output is best effort.
			io.WriteString(b.w, "\n")
		}),
	)
}

// SetTotal implements [Reporter].
func (b *Bar) SetTotal(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		b.bar.ChangeMax(total)
	}
}

// Add implements [Reporter].
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		//nolint:errcheck // Progress output is best effort.
		b.bar.Add(n)
	}
}

// Close implements [Reporter].
func (b *Bar) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finish()
}

func (b *Bar) finish() {
	if b.bar == nil {
		return
	}

	//nolint:errcheck // Progress output is best effort.
	b.bar.Finish()
	b.bar = nil
}

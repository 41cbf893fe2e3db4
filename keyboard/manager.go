package keyboard

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// PollInterval is the pause between empty reads.
const PollInterval = 10 * time.Millisecond

// queueSize bounds the command queue; key presses beyond it are dropped.
const queueSize = 32

// Manager owns the keyboard goroutine.
type Manager struct {
	bindings Bindings
	cmds     chan Command
	restore  func()
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager returns a manager for b.
func NewManager(b Bindings) *Manager {
	return &Manager{
		bindings: b,
		cmds:     make(chan Command, queueSize),
	}
}

// Commands returns the command queue.
func (m *Manager) Commands() <-chan Command {
	return m.cmds
}

// Start switches f to non-canonical, no-echo, non-blocking input and
// starts polling it. It fails with [ErrNotTerminal] when f is not a
// terminal.
func (m *Manager) Start(ctx context.Context, f *os.File) error {
	if !isatty.IsTerminal(f.Fd()) {
		return ErrNotTerminal
	}

	r, restore, err := makeCbreak(int(f.Fd()))
	if err != nil {
		return err
	}

	m.restore = restore
	m.Run(ctx, r)

	return nil
}

// Run polls r from a new goroutine until ctx is done, [Manager.Stop] is
// called, or r fails. Empty reads sleep for [PollInterval].
func (m *Manager) Run(ctx context.Context, r io.Reader) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Go(func() {
		var (
			buf     = make([]byte, 4)
			pending []byte
		)

		for ctx.Err() == nil {
			n, err := r.Read(buf)
			if n > 0 {
				data := append(pending, buf[:n]...)
				cut := completePrefix(data)
				m.dispatch(data[:cut])
				pending = append([]byte(nil), data[cut:]...)

				continue
			}

			// Nothing followed an incomplete sequence: deliver it as is.
			if len(pending) > 0 {
				m.dispatch(pending)
				pending = nil
			}

			if err != nil && !isRetryable(err) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(PollInterval):
			}
		}
	})
}

func (m *Manager) dispatch(b []byte) {
	for _, k := range Decode(b) {
		c, ok := m.bindings[k]
		if !ok {
			continue
		}

		select {
		case m.cmds <- c:
		default:
		}
	}
}

// Stop ends polling and restores the terminal attributes.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}

	m.wg.Wait()

	if m.restore != nil {
		m.restore()
		m.restore = nil
	}
}

// completePrefix returns the length of the longest prefix of b that does
// not end inside an arrow sequence or a UTF-8 encoding.
func completePrefix(b []byte) int {
	n := len(b)

	switch {
	case n >= 1 && b[n-1] == 0x1b:
		return n - 1
	case n >= 2 && b[n-2] == 0x1b && b[n-1] == '[':
		return n - 2
	}

	for i := n - 1; i >= 0 && i >= n-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}

			break
		}
	}

	return n
}

func isRetryable(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) || isAgain(err)
}

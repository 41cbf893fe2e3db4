// Package termstate guarantees that the terminal is restored on every exit
// path of a full-screen player.
//
// The process-wide [State] saves the terminal attributes before anything
// changes them and installs one handler for SIGINT, SIGTERM and SIGHUP.
// On a signal it marks the process interrupted, restores the saved
// attributes, writes the restore sequence with a raw write, and re-raises
// the signal with the default disposition so the exit status is correct.
//
// A [Guard] enters the alternate screen and hides the cursor; its Restore
// method undoes that and is safe to call more than once.
package termstate

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/term"

	"go.jacobcolvin.com/glyphcast/glyph"
)

// Signals are the signals that restore the terminal before terminating.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// State is the saved terminal state and signal handler of a process.
type State struct {
	saved       *term.State
	raise       func(os.Signal)
	write       func([]byte)
	stop        chan struct{}
	inFd        int
	outFd       int
	mu          sync.Mutex
	installOnce sync.Once
	interrupted atomic.Bool
}

// Option configures a [State].
type Option func(*State)

// WithRaise replaces the function that re-raises a handled signal.
func WithRaise(fn func(os.Signal)) Option {
	return func(s *State) { s.raise = fn }
}

// WithRawWrite replaces the raw write used by the signal handler.
func WithRawWrite(fn func([]byte)) Option {
	return func(s *State) { s.write = fn }
}

// NewState returns a State for the terminal on inFd, writing restore
// sequences to outFd.
func NewState(inFd, outFd int, opts ...Option) *State {
	s := &State{
		inFd:  inFd,
		outFd: outFd,
		stop:  make(chan struct{}),
	}
	s.raise = reraise
	s.write = func(b []byte) { rawWrite(s.outFd, b) }

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var (
	defaultOnce  sync.Once
	defaultState *State
)

// Default returns the State for stdin and stdout.
func Default() *State {
	defaultOnce.Do(func() {
		defaultState = NewState(int(os.Stdin.Fd()), int(os.Stdout.Fd()))
	})

	return defaultState
}

// Install saves the terminal attributes and starts the signal handler. Only
// the first call has an effect.
func (s *State) Install() {
	s.installOnce.Do(func() {
		s.Save()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, Signals...)

		go func() {
			select {
			case sig := <-ch:
				signal.Stop(ch)
				s.Handle(sig)
			case <-s.stop:
				signal.Stop(ch)
			}
		}()
	})
}

// Uninstall stops the signal handler. It is meant for tests and for
// processes that outlive their last player.
func (s *State) Uninstall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// Save records the current terminal attributes when inFd is a terminal.
func (s *State) Save() {
	if !term.IsTerminal(s.inFd) {
		return
	}

	st, err := term.GetState(s.inFd)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.saved = st
	s.mu.Unlock()
}

// RestoreTerminal puts back the saved attributes, if any.
func (s *State) RestoreTerminal() {
	s.mu.Lock()
	st := s.saved
	s.mu.Unlock()

	if st != nil {
		//nolint:errcheck // Nothing more can be done on failure.
		term.Restore(s.inFd, st)
	}
}

// Handle responds to a terminating signal: it marks the process
// interrupted, restores the terminal and re-raises sig.
func (s *State) Handle(sig os.Signal) {
	s.interrupted.Store(true)
	s.RestoreTerminal()
	s.write([]byte(glyph.RestoreSequence))
	s.raise(sig)
}

// WasInterrupted reports whether a terminating signal arrived.
func (s *State) WasInterrupted() bool {
	return s.interrupted.Load()
}

// Guard owns the alternate screen for the lifetime of a player.
type Guard struct {
	state *State
	w     io.Writer
	once  sync.Once
}

// NewGuard installs the signal handler on state, enters the alternate
// screen on w and hides the cursor.
func NewGuard(state *State, w io.Writer) *Guard {
	state.Install()

	//nolint:errcheck // Terminal writes are best effort.
	io.WriteString(w, glyph.AltScreenOn+glyph.HideCursor+glyph.ClearScreen+glyph.CursorHome)

	return &Guard{state: state, w: w}
}

// Restore restores the terminal attributes, shows the cursor, resets the
// colors and leaves the alternate screen. Calls after the first do
// nothing.
func (g *Guard) Restore() {
	g.once.Do(func() {
		g.state.RestoreTerminal()
		//nolint:errcheck // Terminal writes are best effort.
		io.WriteString(g.w, glyph.RestoreSequence)
	})
}

// Interrupted reports whether the process received a terminating signal.
func (g *Guard) Interrupted() bool {
	return g.state.WasInterrupted()
}

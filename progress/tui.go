package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	tickInterval = 100 * time.Millisecond
	barWidth     = 30
)

type (
	phaseMsg struct {
		name  string
		total int
	}
	totalMsg int
	addMsg   int
	doneMsg  struct{}
	tickMsg  time.Time
)

// Model is the bubbletea model of the export progress view.
type Model struct {
	start  time.Time
	now    time.Time
	cancel context.CancelFunc
	phase  string
	total  int
	done   int
}

// NewModel returns a model started at now. cancel is called when the user
// quits the view.
func NewModel(now time.Time, cancel context.CancelFunc) *Model {
	return &Model{start: now, now: now, cancel: cancel}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}

			return m, tea.Quit
		}

	case phaseMsg:
		m.phase = msg.name
		m.total = msg.total
		m.done = 0

	case totalMsg:
		m.total = int(msg)

	case addMsg:
		m.done += int(msg)

	case doneMsg:
		return m, tea.Quit

	case tickMsg:
		m.now = time.Time(msg)

		return m, tick()
	}

	return m, nil
}

// Line renders the progress line: a spinner, the phase, and either a count
// or, once the total is known, a bar with a percentage.
func (m *Model) Line() string {
	var sb strings.Builder

	// The spinner follows wall time, not progress.
	frame := int(m.now.Sub(m.start)/tickInterval) % len(spinnerFrames)
	sb.WriteString(spinnerFrames[frame])
	sb.WriteByte(' ')
	sb.WriteString(m.phase)

	if m.total <= 0 {
		fmt.Fprintf(&sb, " %d", m.done)

		return sb.String()
	}

	frac := min(float64(m.done)/float64(m.total), 1)
	filled := int(frac * barWidth)

	sb.WriteString(" [")
	sb.WriteString(strings.Repeat("█", filled))
	sb.WriteString(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(&sb, "] %d/%d %3.0f%%", m.done, m.total, frac*100)

	return sb.String()
}

// View implements [tea.Model].
func (m *Model) View() tea.View {
	return tea.NewView(m.Line() + "\n")
}

// TUI reports through a bubbletea program.
type TUI struct {
	prog *tea.Program
	wg   sync.WaitGroup
}

// NewTUI starts the progress view on out. Quitting the view calls cancel.
func NewTUI(ctx context.Context, out io.Writer, cancel context.CancelFunc) *TUI {
	t := &TUI{
		prog: tea.NewProgram(NewModel(time.Now(), cancel),
			tea.WithContext(ctx),
			tea.WithOutput(out),
		),
	}

	t.wg.Go(func() {
		//nolint:errcheck // The view ends with the export either way.
		t.prog.Run()
	})

	return t
}

// Phase implements [Reporter].
func (t *TUI) Phase(name string, total int) {
	t.prog.Send(phaseMsg{name: name, total: total})
}

// SetTotal implements [Reporter].
func (t *TUI) SetTotal(total int) {
	t.prog.Send(totalMsg(total))
}

// Add implements [Reporter].
func (t *TUI) Add(n int) {
	t.prog.Send(addMsg(n))
}

// Close implements [Reporter].
func (t *TUI) Close() {
	t.prog.Send(doneMsg{})
	t.wg.Wait()
}

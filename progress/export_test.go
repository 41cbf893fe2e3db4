package progress

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

func PhaseMsg(name string, total int) tea.Msg { return phaseMsg{name: name, total: total} }
func TotalMsg(n int) tea.Msg                  { return totalMsg(n) }
func AddMsg(n int) tea.Msg                    { return addMsg(n) }
func TickMsg(t time.Time) tea.Msg             { return tickMsg(t) }

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/history"
)

// eventMsg carries one coordinator event into Update
type eventMsg struct {
	Event events.Event
}

// streamClosedMsg is sent once the coordinator's event channel closes
type streamClosedMsg struct{}

// commandBuiltMsg carries a command built off the UI goroutine
type commandBuiltMsg struct {
	Command *history.Command
	Err     error
}

// listen returns a command that waits for the next coordinator event
func (m *Model) listen() tea.Cmd {
	stream := m.coordinator.Events()
	return func() tea.Msg {
		select {
		case e, ok := <-stream:
			if !ok {
				return streamClosedMsg{}
			}
			return eventMsg{Event: e}
		case <-m.ctx.Done():
			return streamClosedMsg{}
		}
	}
}

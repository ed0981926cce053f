package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/clexbrowser/internal/commands"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// Update handles messages and returns the updated model and any commands.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		m.handleEvent(msg.Event)
		return m, m.listen()

	case streamClosedMsg:
		return m, nil

	case commandBuiltMsg:
		m.building = false
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		m.submitCommand(msg.Command, tasks.Forward, opExecute)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "ctrl+c", m.keys.Quit:
		m.quitting = true
		return tea.Quit
	case "up", m.keys.Up:
		m.moveCursor(-1)
	case "down", m.keys.Down:
		m.moveCursor(1)
	case "left", "shift+tab", m.keys.PrevPane:
		m.focus = (m.focus + paneCount - 1) % paneCount
	case "right", "tab", m.keys.NextPane:
		m.focus = (m.focus + 1) % paneCount
	case m.keys.Undo:
		m.undo()
	case m.keys.Redo:
		m.redo()
	case m.keys.DeleteDefinition:
		return m.deleteSelectedDefinition()
	case m.keys.CancelTask:
		if m.active != "" {
			m.coordinator.Cancel(m.active)
		}
	case m.keys.Reload:
		m.reload()
	case m.keys.DefinitionOnly:
		m.definitionOnly = !m.definitionOnly
		m.loadDevices()
	}
	return nil
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case paneTechnologies:
		next := clamp(m.techIdx+delta, 0, len(m.technologies)-1)
		if next != m.techIdx {
			m.techIdx = next
			m.loadDevices()
		}
	case paneDevices:
		next := clamp(m.deviceIdx+delta, 0, len(m.devices)-1)
		if next != m.deviceIdx {
			m.deviceIdx = next
			m.loadDefinition()
		}
	case paneDefinition:
		m.scroll = max(0, m.scroll+delta)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// ============================================================================
// Submitting work
// ============================================================================

// submitLoad submits a load task, cancelling the previous one of its kind
func (m *Model) submitLoad(task worker.Task, kind string) {
	if prev, ok := m.latest[kind]; ok {
		m.coordinator.Cancel(prev)
	}
	h, err := m.coordinator.Submit(task)
	if err != nil {
		m.setError(err)
		return
	}
	m.latest[kind] = h
	m.track(h)
}

func (m *Model) track(h worker.Handle) {
	m.active = h
	m.percent = 0
	m.err = ""
}

func (m *Model) loadDevices() {
	tech := m.selectedTechnology()
	if tech == nil {
		m.devices, m.stats, m.definition = nil, nil, nil
		return
	}
	m.submitLoad(tasks.LoadDevices(m.store, tech.ID, m.definitionOnly), tasks.KindLoadDevices)
}

func (m *Model) loadDefinition() {
	dev := m.selectedDevice()
	if dev == nil {
		m.definition = nil
		return
	}
	m.scroll = 0
	m.submitLoad(tasks.LoadDefinition(m.store, dev.ID), tasks.KindLoadDefinition)
}

func (m *Model) reload() {
	if m.ingester == nil {
		m.status = "Reload unavailable"
		return
	}
	m.submitLoad(tasks.CreateOrRefreshDatabase(m.ingester, m.store, m.logFile, true), tasks.KindRefreshDatabase)
}

// commandRunning reports whether a command is being built or is still in
// flight; undo and redo wait for it so the history stays in order
func (m *Model) commandRunning() bool {
	return m.building || len(m.commands) > 0
}

func (m *Model) submitCommand(cmd *history.Command, direction tasks.Direction, op commandOp) {
	h, err := m.coordinator.Submit(tasks.RunCommand(cmd, direction))
	if err != nil {
		m.setError(err)
		return
	}
	m.commands[h] = pendingCommand{cmd: cmd, op: op}
	m.track(h)
}

func (m *Model) undo() {
	if m.commandRunning() {
		m.status = "Waiting for the previous edit"
		return
	}
	cmd, ok := m.history.PendingUndo()
	if !ok {
		m.status = "Nothing to undo"
		return
	}
	m.submitCommand(cmd, tasks.Inverse, opUndo)
}

func (m *Model) redo() {
	if m.commandRunning() {
		m.status = "Waiting for the previous edit"
		return
	}
	cmd, ok := m.history.PendingRedo()
	if !ok {
		m.status = "Nothing to redo"
		return
	}
	m.submitCommand(cmd, tasks.Forward, opRedo)
}

// deleteSelectedDefinition builds the delete command off the UI goroutine
func (m *Model) deleteSelectedDefinition() tea.Cmd {
	dev := m.selectedDevice()
	if dev == nil || !dev.HasDefinition {
		m.status = "No definition to delete"
		return nil
	}
	if m.commandRunning() {
		m.status = "Waiting for the previous edit"
		return nil
	}
	m.building = true
	ctx, store, id := m.ctx, m.store, dev.ID
	return func() tea.Msg {
		cmd, err := commands.DeleteDefinition(ctx, store, id)
		return commandBuiltMsg{Command: cmd, Err: err}
	}
}

// ============================================================================
// Events
// ============================================================================

func (m *Model) handleEvent(e events.Event) {
	switch e.Type {
	case events.EventProgress:
		if e.Handle == m.active {
			m.percent = e.Progress
		}
		return
	case events.EventStatus:
		if e.Handle == m.active {
			m.status = e.Message
		}
		return
	}

	// terminal events
	if e.Handle == m.active {
		m.active = ""
	}
	if pending, ok := m.commands[e.Handle]; ok {
		delete(m.commands, e.Handle)
		m.finishCommand(pending, e)
		return
	}
	if latest, ok := m.latest[e.Kind]; !ok || latest != e.Handle {
		return
	}
	delete(m.latest, e.Kind)

	switch e.Type {
	case events.EventCancelled:
		m.status = "Cancelled"
	case events.EventError:
		m.setError(e.Err)
	case events.EventResult:
		m.applyResult(e)
	}
}

func (m *Model) applyResult(e events.Event) {
	switch payload := e.Payload.(type) {
	case []*models.Technology:
		m.technologies = payload
		m.techIdx = clamp(m.techIdx, 0, len(payload)-1)
		m.loadDevices()
	case tasks.DevicesPayload:
		if tech := m.selectedTechnology(); tech == nil || tech.ID != payload.TechnologyID {
			return
		}
		m.devices = payload.Devices
		m.stats = payload.Stats
		m.deviceIdx = clamp(m.deviceIdx, 0, len(payload.Devices)-1)
		m.loadDefinition()
	case tasks.DefinitionView:
		if dev := m.selectedDevice(); dev == nil || dev.ID != payload.Device.ID {
			return
		}
		m.definition = &payload
	case database.LoadSummary:
		// the dataset was replaced outside the history
		m.history.Clear()
		m.status = fmt.Sprintf("Loaded %d technologies, %d devices, %d definitions",
			payload.Technologies, payload.Devices, payload.Definitions)
		m.submitLoad(tasks.LoadTechnologies(m.store), tasks.KindLoadTechnologies)
	}
}

func (m *Model) finishCommand(p pendingCommand, e events.Event) {
	switch e.Type {
	case events.EventError:
		m.setError(e.Err)
		return
	case events.EventCancelled:
		m.status = "Cancelled: " + p.cmd.Label
		return
	}

	var err error
	switch p.op {
	case opExecute:
		err = m.history.Record(p.cmd)
		m.status = p.cmd.Label
	case opUndo:
		err = m.history.MarkUndone(p.cmd)
		m.status = "Undone: " + p.cmd.Label
	case opRedo:
		err = m.history.MarkRedone(p.cmd)
		m.status = "Redone: " + p.cmd.Label
	}
	if err != nil {
		slog.Warn("history out of step with completed command", "label", p.cmd.Label, "error", err)
		if errors.Is(err, history.ErrStaleCommand) {
			m.history.Clear()
		}
	}
	m.loadDevices()
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.err = err.Error()
}

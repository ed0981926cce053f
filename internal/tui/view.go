package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// View renders the three panes and the status line
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// borders and padding take 4 columns per pane
	inner := max(m.width-12, 30)
	listWidth := inner / 4
	defWidth := inner - 2*listWidth
	bodyHeight := max(m.height-6, 5)

	techs := m.renderPane(paneTechnologies, "Technologies", m.technologyLines(), listWidth, bodyHeight)
	devices := m.renderPane(paneDevices, m.devicesTitle(), m.deviceLines(), listWidth, bodyHeight)
	definition := m.renderPane(paneDefinition, "Definition", m.definitionLines(bodyHeight), defWidth, bodyHeight)

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, techs, devices, definition))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: " + m.err))
	}
	return b.String()
}

func (m *Model) renderPane(p pane, title string, lines []string, width, height int) string {
	style := m.styles.Pane
	if m.focus == p {
		style = m.styles.FocusedPane
	}
	if len(lines) > height-1 {
		lines = lines[:height-1]
	}
	content := m.styles.Title.Render(title) + "\n" + strings.Join(lines, "\n")
	return style.Width(width).Height(height).Render(content)
}

func (m *Model) technologyLines() []string {
	lines := make([]string, 0, len(m.technologies))
	for i, t := range m.technologies {
		label := t.Name
		if t.Version != "" {
			label += " v" + t.Version
		}
		lines = append(lines, m.listItem(label, i == m.techIdx))
	}
	return lines
}

func (m *Model) devicesTitle() string {
	title := "Devices"
	if m.definitionOnly {
		title += " (with definition)"
	}
	if m.stats != nil {
		title += fmt.Sprintf(" %d/%d", m.stats.DevicesWithDefinition, m.stats.TotalDevices)
	}
	return title
}

func (m *Model) deviceLines() []string {
	lines := make([]string, 0, len(m.devices))
	for i, d := range m.devices {
		lines = append(lines, m.listItem(deviceLabel(d), i == m.deviceIdx))
	}
	return lines
}

func deviceLabel(d *models.Device) string {
	if d.HasDefinition {
		return d.Name + " *"
	}
	return d.Name
}

func (m *Model) listItem(label string, selected bool) string {
	if selected {
		return m.styles.Selected.Render("> " + label)
	}
	return m.styles.Normal.Render("  " + label)
}

func (m *Model) definitionLines(height int) []string {
	if m.definition == nil {
		return nil
	}
	if !m.definition.Found {
		return []string{m.styles.Subtle.Render("No definition for " + m.definition.Device.Name)}
	}

	lines := []string{m.styles.Header.Render(m.definition.Header), ""}
	body := strings.Split(m.definition.Body, "\n")
	start := min(m.scroll, max(len(body)-1, 0))
	lines = append(lines, body[start:]...)
	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

func (m *Model) statusLine() string {
	var parts []string
	if m.active != "" {
		parts = append(parts, m.spinner.View()+" "+m.progress.ViewAs(float64(m.percent)/100))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.history != nil {
		parts = append(parts, m.styles.Subtle.Render(m.history.UndoText()+"  "+m.history.RedoText()))
	}
	help := fmt.Sprintf("%s/%s undo/redo  %s delete  %s cancel  %s quit",
		m.keys.Undo, m.keys.Redo, m.keys.DeleteDefinition, m.keys.CancelTask, m.keys.Quit)
	parts = append(parts, m.styles.Subtle.Render(help))
	return strings.Join(parts, "  |  ")
}

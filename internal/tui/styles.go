package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thenoetrevino/clexbrowser/internal/config"
)

// styles holds the lipgloss styles derived from the configured theme
type styles struct {
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	Title       lipgloss.Style
	Selected    lipgloss.Style
	Normal      lipgloss.Style
	Subtle      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Header      lipgloss.Style
}

func newStyles(theme config.Theme) styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Subtle)).
		Padding(0, 1)

	return styles{
		Pane:        pane,
		FocusedPane: pane.BorderForeground(lipgloss.Color(theme.Border)),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Accent)),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Selected)),
		Normal:      lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Normal)),
		Subtle:      lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Subtle)),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Error)),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Success)),
		Header:      lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent)),
	}
}

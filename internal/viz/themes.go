package viz

import "github.com/charmbracelet/lipgloss"

type theme struct {
	name    string
	header  lipgloss.Style
	canvas  lipgloss.Style
	stats   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	running lipgloss.Style
	failed  lipgloss.Style
	help    lipgloss.Style
}

func newTheme(name string, primary, accent, muted, text lipgloss.Color) theme {
	return theme{
		name:    name,
		header:  lipgloss.NewStyle().Foreground(primary).Bold(true).MarginBottom(1),
		canvas:  lipgloss.NewStyle().Foreground(accent).Padding(1, 2),
		stats:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(muted).Padding(1, 2).Width(45),
		label:   lipgloss.NewStyle().Foreground(muted).Width(8),
		value:   lipgloss.NewStyle().Foreground(text),
		running: lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true),
		help:    lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}

var themes = []theme{
	newTheme("copper", "#d9895b", "#f0b27a", "240", "252"),
	newTheme("ocean", "86", "49", "240", "252"),
	newTheme("mono", "255", "250", "244", "255"),
}

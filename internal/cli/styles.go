package cli

import "github.com/charmbracelet/lipgloss"

// Output styles for session summaries.
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4"))

	styleLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	styleValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4"))

	styleBest = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A6E3A1"))

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))
)

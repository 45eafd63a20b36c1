package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Base styles used across command output
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	ItemStyle = lipgloss.NewStyle().
			Bold(true)
)

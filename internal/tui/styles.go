package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primary = lipgloss.Color("63")  // Purple/blue
	success = lipgloss.Color("78")  // Green
	failure = lipgloss.Color("196") // Red
	warning = lipgloss.Color("214") // Orange
	textDim = lipgloss.Color("245") // Dimmer text
	surface = lipgloss.Color("236") // Dark gray

	titleStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1)

	passStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(failure).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(warning)
	dimStyle  = lipgloss.NewStyle().Foreground(textDim)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textDim).
			Background(surface).
			Padding(0, 1)

	evidenceStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(textDim)
)

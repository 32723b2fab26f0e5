package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorWhite = lipgloss.Color("#FFFFFF")
	colorGray  = lipgloss.Color("#888888")
	colorGreen = lipgloss.Color("#00C853")
	colorRed   = lipgloss.Color("#FF5252")

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

// Heading renders a section title.
func Heading(s string) string { return headingStyle.Render(s) }

// Label renders a field label.
func Label(s string) string { return labelStyle.Render(s) }

// Success renders a positive status.
func Success(s string) string { return successStyle.Render(s) }

// Failure renders a negative status.
func Failure(s string) string { return failureStyle.Render(s) }

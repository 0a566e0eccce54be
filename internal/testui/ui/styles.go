package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("39")  // Cyan
	colorSecondary = lipgloss.Color("141") // Purple
	colorSuccess   = lipgloss.Color("82")  // Green
	colorWarning   = lipgloss.Color("214") // Yellow/Orange
	colorError     = lipgloss.Color("196") // Red
	colorMuted     = lipgloss.Color("245") // Gray
	colorHighlight = lipgloss.Color("51")  // Bright cyan
)

// Text styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Test list styles
var (
	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	xfailStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)
)

// Layout styles
var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted).
			Padding(0, 1)

	filterLabelStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	filterActiveStyle = lipgloss.NewStyle().
				Foreground(colorHighlight)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	errorPopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)
)

// GetResultStyle returns the style for a result state
func GetResultStyle(state domain.ResultState) lipgloss.Style {
	switch state {
	case domain.ResultOK:
		return successStyle
	case domain.ResultFailed, domain.ResultError:
		return errorStyle
	case domain.ResultSkipped:
		return warningStyle
	case domain.ResultXFail, domain.ResultXPass:
		return xfailStyle
	case domain.ResultUnknown:
		return warningStyle
	default:
		return mutedStyle
	}
}

// GetRunStateStyle returns the style for a test's run state
func GetRunStateStyle(state domain.RunState) lipgloss.Style {
	if state == domain.RunStateNone {
		return lipgloss.NewStyle()
	}
	return runningStyle
}

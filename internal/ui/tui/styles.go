package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/stackpilot/internal/stack"
)

// Palette shared with the plain CLI output.
var (
	ColorComplete   = lipgloss.Color("#22c55e")
	ColorFailed     = lipgloss.Color("#ef4444")
	ColorInProgress = lipgloss.Color("#eab308")
	ColorAccent     = lipgloss.Color("#3b82f6")
	ColorMuted      = lipgloss.Color("#6b7280")
	ColorText       = lipgloss.Color("#f9fafb")
)

var (
	completeStyle   = lipgloss.NewStyle().Foreground(ColorComplete)
	failedStyle     = lipgloss.NewStyle().Foreground(ColorFailed)
	inProgressStyle = lipgloss.NewStyle().Foreground(ColorInProgress)
	mutedStyle      = lipgloss.NewStyle().Foreground(ColorMuted)
	spinnerStyle    = lipgloss.NewStyle().Foreground(ColorText).Bold(true)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).MarginTop(1)
)

// Resource marks.
const (
	markComplete = "[OK]"
	markFailed   = "[!!]"
	markRollback = "[??]"
	markPending  = "[  ]"
)

// StateStyle colors a stack or resource state by outcome. A finished
// rollback counts as failed.
func StateStyle(s stack.State) lipgloss.Style {
	switch {
	case s.IsFailed():
		return failedStyle
	case s.IsComplete():
		return completeStyle
	case s.IsInProgress():
		return inProgressStyle
	}
	return mutedStyle
}

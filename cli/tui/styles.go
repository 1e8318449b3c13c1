// Package tui provides Bubble Tea views for the vgmlink CLI.
//
// Views are opt-in with --tui. The stream view is live and stops the
// session on q or Ctrl+C. The inspect and history views are static and
// render the same payloads as the json, table and yaml output.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Phosphor green for progress, amber for work in flight.
var (
	accent  = lipgloss.Color("#22D3EE")
	okColor = lipgloss.Color("#4ADE80")
	busy    = lipgloss.Color("#FBBF24")
	bad     = lipgloss.Color("#F87171")
	dim     = lipgloss.Color("#64748B")
	bright  = lipgloss.Color("#F8FAFC")
)

// Bar gradient endpoints for the stream progress bar.
const (
	barFrom = "#0E7490"
	barTo   = "#4ADE80"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)

	// LabelStyle pads field labels into a column.
	LabelStyle = lipgloss.NewStyle().Foreground(dim).Width(16)
	ValueStyle = lipgloss.NewStyle().Foreground(bright)

	OKStyle   = lipgloss.NewStyle().Foreground(okColor)
	BusyStyle = lipgloss.NewStyle().Foreground(busy)
	BadStyle  = lipgloss.NewStyle().Foreground(bad)

	BoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(1, 2)
	HelpStyle = lipgloss.NewStyle().Foreground(dim).MarginTop(1)

	// StatBoxStyle frames one counter in the history view. Callers set
	// the border colour per outcome.
	StatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Width(20).Align(lipgloss.Center)
	StatLabelStyle = lipgloss.NewStyle().Foreground(dim).Align(lipgloss.Center)
	StatValueStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
)

// StateStyle colours a session state or outcome name.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "done":
		return OKStyle
	case "handshaking", "streaming", "loop_continue", "draining":
		return BusyStyle
	case "failed", "interrupted":
		return BadStyle
	default:
		return ValueStyle
	}
}

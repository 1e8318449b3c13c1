package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View types with a read-only TUI.
const (
	ViewInspect = "inspect_file"
	ViewHistory = "stats_history"
)

// Run starts the read-only TUI for the view type.
func Run(viewType string, data any) error {
	model, err := newStaticModel(viewType, data)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// RenderStatic renders a read-only view without starting the program.
func RenderStatic(viewType string, data any) (string, error) {
	model, err := newStaticModel(viewType, data)
	if err != nil {
		return "", err
	}
	model.width = 80
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View()), nil
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns the read-only view types.
func SupportedTUIViews() []string {
	return []string{ViewInspect, ViewHistory}
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// staticModel shows one payload until the user quits.
type staticModel struct {
	viewType string
	render   func() string
	width    int
	quitting bool
}

func newStaticModel(viewType string, data any) (staticModel, error) {
	m := staticModel{viewType: viewType}
	switch viewType {
	case ViewInspect:
		r, err := inspectData(data)
		if err != nil {
			return m, err
		}
		m.render = func() string { return renderInspect(r) }
	case ViewHistory:
		s, err := historyData(data)
		if err != nil {
			return m, err
		}
		m.render = func() string { return renderHistory(s) }
	default:
		return m, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	return m, nil
}

// Init implements tea.Model.
func (m staticModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m staticModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m staticModel) View() string {
	if m.quitting {
		return ""
	}
	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return m.render() + "\n" + help
}

func renderRows(rows [][2]string) string {
	var b strings.Builder
	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		b.WriteString(fmt.Sprintf("%s %s\n", label, ValueStyle.Render(row[1])))
	}
	return b.String()
}

func renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}

package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/vgmlink/lode"
)

func historyData(data any) (*lode.Summary, error) {
	switch s := data.(type) {
	case *lode.Summary:
		if s != nil {
			return s, nil
		}
	case lode.Summary:
		return &s, nil
	}
	return nil, fmt.Errorf("invalid data type for %s: %T", ViewHistory, data)
}

func renderHistory(s *lode.Summary) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session History"))
	b.WriteString("\n\n")

	boxes := []string{
		renderStatBox("Total", s.Total, accent),
		renderStatBox("Done", s.Done, okColor),
		renderStatBox("Interrupted", s.Interrupted, busy),
		renderStatBox("Failed", s.Failed, bad),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Confirmed", fmt.Sprintf("%d bytes", s.BytesConfirmed)},
		{"Retransmits", fmt.Sprintf("%d", s.Retransmits)},
		{"Streamed", fmt.Sprintf("%d ms", s.PlayedMs)},
	}
	boards := make([]string, 0, len(s.ByBoard))
	for name := range s.ByBoard {
		boards = append(boards, name)
	}
	slices.Sort(boards)
	for _, name := range boards {
		rows = append(rows, [2]string{"Board " + name, fmt.Sprintf("%d", s.ByBoard[name])})
	}
	b.WriteString(renderRows(rows))
	return b.String()
}

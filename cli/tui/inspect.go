package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/justapithecus/vgmlink/artifact"
)

func inspectData(data any) (*artifact.Report, error) {
	r, ok := data.(*artifact.Report)
	if !ok || r == nil {
		return nil, fmt.Errorf("invalid data type for %s: %T", ViewInspect, data)
	}
	return r, nil
}

func renderInspect(r *artifact.Report) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(r.Source))
	b.WriteString("\n\n")

	h := r.Header
	rows := [][2]string{
		{"Version", h.VersionString()},
		{"Chips", strings.Join(h.Chips(), ", ")},
		{"Duration", samplesToTime(uint64(h.TotalSamples))},
	}
	if h.HasLoop() {
		rows = append(rows, [2]string{"Loop", samplesToTime(uint64(h.LoopSamples))})
	}
	if t := r.Tags; t != nil {
		rows = append(rows,
			[2]string{"Track", t.TrackEN},
			[2]string{"Game", t.GameEN},
			[2]string{"Author", t.AuthorEN},
		)
	}
	b.WriteString(renderRows(rows))
	header := BoxStyle.Render(b.String())

	var p strings.Builder
	p.WriteString(TitleStyle.Render("Pipeline"))
	p.WriteString("\n\n")
	for _, s := range r.Steps {
		p.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Width(24).Render(s.Pass),
			ValueStyle.Render(fmt.Sprintf("%d → %d", s.Before, s.After))))
	}
	kinds := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	p.WriteString("\n")
	for _, k := range kinds {
		p.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(k), ValueStyle.Render(fmt.Sprintf("%d", r.Counts[k]))))
	}
	size := fmt.Sprintf("%d bytes", r.EncodedLen)
	if r.Truncated {
		size += " " + BusyStyle.Render("(truncated)")
	}
	p.WriteString(fmt.Sprintf("\n%s %s\n", LabelStyle.Render("Encoded:"), size))
	pipeline := BoxStyle.Render(p.String())

	return header + "\n" + pipeline
}

// samplesToTime renders a 44.1 kHz sample count as m:ss.
func samplesToTime(samples uint64) string {
	secs := samples / 44100
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

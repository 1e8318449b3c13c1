package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/lode"
	"github.com/justapithecus/vgmlink/session"
	"github.com/justapithecus/vgmlink/transform"
	"github.com/justapithecus/vgmlink/vgm"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"inspect_file", true},
		{"stats_history", true},
		{"list_boards", false},
		{"list_ports", false},
		{"version", false},
		{"stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}

	for _, v := range SupportedTUIViews() {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("list_boards", nil); err == nil {
		t.Error("expected error for unsupported view type")
	}
}

func TestRenderStatic_WrongData(t *testing.T) {
	if _, err := RenderStatic(ViewInspect, lode.Summary{}); err == nil {
		t.Error("expected error for wrong inspect payload")
	}
	if _, err := RenderStatic(ViewHistory, "nope"); err == nil {
		t.Error("expected error for wrong history payload")
	}
}

func TestRenderStatic_Inspect(t *testing.T) {
	report := &artifact.Report{
		Source: "green_hill.vgz",
		Tags:   &vgm.Tags{TrackEN: "Green Hill Zone", GameEN: "Sonic the Hedgehog"},
		Header: vgm.Header{Version: 0x150, SN76489Clock: 3579545, YM2612Clock: 7670453, TotalSamples: 44100 * 75},
		Steps: []transform.Step{
			{Pass: "reduce_audio_rate_4", Before: 1000, After: 1000},
			{Pass: "consolidate_waits", Before: 1000, After: 700},
		},
		Counts:     map[string]int{"chip_write": 500, "wait": 200},
		EncodedLen: 2048,
		Truncated:  true,
	}

	out, err := RenderStatic(ViewInspect, report)
	if err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	for _, want := range []string{"green_hill.vgz", "1.50", "sn76489, ym2612", "1:15", "Green Hill Zone", "consolidate_waits", "2048 bytes", "truncated"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect view missing %q", want)
		}
	}
}

func TestRenderStatic_History(t *testing.T) {
	s := lode.Summarize([]lode.SessionRecord{
		{SessionID: "a", Board: "uno", Outcome: "done", BytesConfirmed: 4096},
		{SessionID: "b", Board: "mega", Outcome: "failed"},
	})

	out, err := RenderStatic(ViewHistory, s)
	if err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	for _, want := range []string{"Session History", "Done", "4096 bytes", "Board mega", "Board uno"} {
		if !strings.Contains(out, want) {
			t.Errorf("history view missing %q", want)
		}
	}
}

func TestSamplesToTime(t *testing.T) {
	tests := []struct {
		samples uint64
		want    string
	}{
		{0, "0:00"},
		{44100, "0:01"},
		{44100 * 61, "1:01"},
		{44100*600 + 100, "10:00"},
	}
	for _, tt := range tests {
		if got := samplesToTime(tt.samples); got != tt.want {
			t.Errorf("samplesToTime(%d) = %q, want %q", tt.samples, got, tt.want)
		}
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestStreamModel_Events(t *testing.T) {
	events := make(chan session.Event, 4)
	m := NewStreamModel(StreamInfo{Source: "song.vgm", Port: "COM3", Passes: 3}, events, nil)

	next, cmd := m.Update(eventMsg(session.Event{
		State:          session.StateStreaming,
		Pass:           2,
		Confirmed:      640,
		Total:          1280,
		InFlight:       1,
		BytesConfirmed: 1920,
	}))
	m = next.(StreamModel)
	if cmd == nil {
		t.Fatal("expected a command waiting for the next event")
	}
	if m.Last().Pass != 2 {
		t.Errorf("Last().Pass = %d, want 2", m.Last().Pass)
	}

	view := m.View()
	for _, want := range []string{"song.vgm", "COM3", "streaming", "2 / 3", "1920 bytes"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	_, cmd = m.Update(eventMsg(session.Event{State: session.StateDone, Pass: 3}))
	if !isQuit(cmd) {
		t.Error("terminal event should quit the program")
	}
}

func TestStreamModel_ClosedChannelQuits(t *testing.T) {
	m := NewStreamModel(StreamInfo{Source: "song.vgm"}, nil, nil)
	_, cmd := m.Update(closedMsg{})
	if !isQuit(cmd) {
		t.Error("closed channel should quit the program")
	}
}

func TestStreamModel_QuitCancelsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var calls int
	m := NewStreamModel(StreamInfo{Source: "song.vgm"}, nil, func() {
		calls++
		cancel()
	})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(StreamModel)
	if cmd != nil {
		t.Error("quit key should wait for the session to stop")
	}
	if ctx.Err() == nil {
		t.Error("quit key did not cancel the session")
	}
	if !strings.Contains(m.View(), "Stopping") {
		t.Error("view should show the stopping hint")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if calls != 1 {
		t.Errorf("cancel calls = %d, want 1", calls)
	}
}

func TestStreamModel_InfinitePasses(t *testing.T) {
	m := NewStreamModel(StreamInfo{Source: "song.vgm"}, nil, nil)
	next, _ := m.Update(eventMsg(session.Event{State: session.StateLoopContinue, Pass: 7}))
	if view := next.(StreamModel).View(); !strings.Contains(view, "7 / ∞") {
		t.Errorf("view missing infinite pass count:\n%s", view)
	}
}

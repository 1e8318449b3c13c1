package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/vgmlink/session"
)

// StreamInfo labels the live stream view.
type StreamInfo struct {
	Source string
	Title  string
	Port   string
	// Passes is the planned pass count. Zero means infinite.
	Passes int
}

type eventMsg session.Event

type closedMsg struct{}

// StreamModel follows session progress events.
type StreamModel struct {
	info   StreamInfo
	events <-chan session.Event
	cancel context.CancelFunc

	bar  progress.Model
	spin spinner.Model

	last        session.Event
	done        bool
	interrupted bool
}

// NewStreamModel creates the live view. cancel is called when the user
// quits; it should cancel the session context.
func NewStreamModel(info StreamInfo, events <-chan session.Event, cancel context.CancelFunc) StreamModel {
	return StreamModel{
		info:   info,
		events: events,
		cancel: cancel,
		bar:    progress.New(progress.WithGradient(barFrom, barTo), progress.WithWidth(48)),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(BusyStyle)),
	}
}

func waitEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// Init implements tea.Model.
func (m StreamModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitEvent(m.events))
}

// Update implements tea.Model.
func (m StreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-8, 10), 72)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) && !m.interrupted {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case eventMsg:
		m.last = session.Event(msg)
		if m.last.State.Terminal() {
			m.done = true
			return m, tea.Quit
		}
		return m, waitEvent(m.events)

	case closedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// Last returns the most recent event.
func (m StreamModel) Last() session.Event {
	return m.last
}

// View implements tea.Model.
func (m StreamModel) View() string {
	title := m.info.Title
	if title == "" {
		title = m.info.Source
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	ev := m.last
	state := ev.State.String()
	stateView := StateStyle(state).Render(state)
	if !m.done && (ev.State == session.StateIdle || ev.State == session.StateHandshaking) {
		stateView = m.spin.View() + " " + stateView
	}

	passes := "∞"
	if m.info.Passes > 0 {
		passes = fmt.Sprintf("%d", m.info.Passes)
	}

	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Port:"), ValueStyle.Render(m.info.Port)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("State:"), stateView))
	b.WriteString(renderRows([][2]string{
		{"Pass", fmt.Sprintf("%d / %s", ev.Pass, passes)},
		{"Confirmed", fmt.Sprintf("%d bytes", ev.BytesConfirmed)},
		{"In flight", fmt.Sprintf("%d", ev.InFlight)},
		{"Retransmits", fmt.Sprintf("%d", ev.Retransmits)},
	}))

	if ev.Total > 0 {
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(float64(ev.Confirmed) / float64(ev.Total)))
		b.WriteString("\n")
	}

	help := "Press q or Ctrl+C to stop"
	if m.interrupted {
		help = "Stopping..."
	}
	return BoxStyle.Render(b.String()) + "\n" + HelpStyle.Render(help)
}

// RunStream runs the live view until the session ends, the events
// channel is closed, or ctx is done. The view writes to stderr.
func RunStream(ctx context.Context, info StreamInfo, events <-chan session.Event, cancel context.CancelFunc) error {
	p := tea.NewProgram(NewStreamModel(info, events, cancel),
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("stream view: %w", err)
	}
	return nil
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smelt-io/smelt/metrics"
	"github.com/smelt-io/smelt/types"
)

// tailSize is the number of recent events kept in the live view.
const tailSize = 10

// EventMsg delivers a decoded event to the live view.
type EventMsg struct {
	Event types.Event
}

// SnapshotMsg delivers updated counters to the live view.
type SnapshotMsg struct {
	Snapshot metrics.Snapshot
}

// DoneMsg signals that the decode session ended. Err is nil on a clean
// end of input.
type DoneMsg struct {
	Err error
}

// LiveModel is the Bubble Tea model for the live decode view.
type LiveModel struct {
	source   string
	snapshot metrics.Snapshot
	recent   []types.Event
	done     bool
	err      error
	width    int
	height   int
	quitting bool
}

// NewLiveModel creates a live view for the given input source label.
func NewLiveModel(source string) LiveModel {
	return LiveModel{source: source}
}

// Init implements tea.Model.
func (m LiveModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case EventMsg:
		m.recent = append(m.recent, msg.Event)
		if len(m.recent) > tailSize {
			m.recent = m.recent[len(m.recent)-tailSize:]
		}
		return m, nil

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m LiveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("smelt decode — " + m.source))
	b.WriteString("\n\n")

	boxes := []string{
		m.statBox("Lines", m.snapshot.LinesRead, highlightColor),
		m.statBox("Messages", m.snapshot.Messages, successColor),
		m.statBox("Artifacts", m.snapshot.Artifacts, primaryColor),
		m.statBox("Builds", m.snapshot.Builds, warningColor),
		m.statBox("Errors", m.snapshot.DecodeErrors, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	b.WriteString(m.renderTail())

	switch {
	case m.done && m.err != nil:
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("decode failed: " + m.err.Error()))
	case m.done:
		b.WriteString("\n")
		b.WriteString(SuccessStyle.Render("decode complete"))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Press q or Ctrl+C to quit"))
	return b.String()
}

func (m LiveModel) renderTail() string {
	if len(m.recent) == 0 {
		return HelpStyle.Render("(waiting for events)")
	}

	var b strings.Builder
	for i, e := range m.recent {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEvent(e))
	}
	return b.String()
}

func (m LiveModel) renderEvent(e types.Event) string {
	ts := LabelStyle.Render(e.Timestamp)
	switch e.Kind {
	case types.EventKindMessage:
		if e.Message == nil {
			return ts
		}
		style := LevelStyle(string(e.Message.Level))
		return ts + style.Render(fmt.Sprintf("[%s] ", e.Message.Level)) + ValueStyle.Render(e.Message.Text)
	case types.EventKindArtifact:
		if e.Artifact == nil {
			return ts
		}
		return ts + ValueStyle.Render(fmt.Sprintf("%s  artifact %s (%d files)",
			e.BuildName, e.Artifact.Description, len(e.Artifact.Files)))
	case types.EventKindBuild:
		if e.Build == nil {
			return ts
		}
		return ts + SuccessStyle.Render(fmt.Sprintf("%s  build complete (%d artifacts)",
			e.BuildName, len(e.Build.Artifacts)))
	default:
		return ts
	}
}

func (m LiveModel) statBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Live wraps a running Bubble Tea program so the decode loop can push
// updates to it from another goroutine.
type Live struct {
	program *tea.Program
}

// NewLive creates the live view program for the given source label.
func NewLive(source string) *Live {
	model := NewLiveModel(source)
	return &Live{program: tea.NewProgram(model, tea.WithAltScreen())}
}

// Run blocks until the user quits the view.
func (l *Live) Run() error {
	_, err := l.program.Run()
	return err
}

// Observe pushes a decoded event and the current counters to the view.
func (l *Live) Observe(event types.Event, snap metrics.Snapshot) {
	l.program.Send(EventMsg{Event: event})
	l.program.Send(SnapshotMsg{Snapshot: snap})
}

// Done signals the end of the decode session. The view stays open until
// the user quits.
func (l *Live) Done(err error) {
	l.program.Send(DoneMsg{Err: err})
}

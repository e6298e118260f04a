// Package ui renders resolution progress in the terminal while the
// orchestrator probes providers.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sluice/internal/media"
	"sluice/internal/orchestrate"
)

var (
	docStyle = lipgloss.NewStyle().
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{
			Light: "#626262",
			Dark:  "#888888",
		})
)

// EventMsg delivers one orchestration event into the model. The caller
// forwards them with Program.Send from the orchestrator's event callback.
type EventMsg orchestrate.Event

// DoneMsg delivers the terminal outcome.
type DoneMsg struct {
	Stream *media.ResolvedStream
	Err    error
}

type probeState struct {
	providerID string
	status     orchestrate.Status
	settled    bool
}

// Model shows a spinner, one line per probed provider, and the outcome.
type Model struct {
	title   string
	spinner spinner.Model
	total   int
	probes  []probeState
	done    bool
	stream  *media.ResolvedStream
	err     error
}

// New creates a progress model titled with the media being resolved.
func New(title string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))

	return &Model{title: title, spinner: s}
}

// Stream returns the winning stream once the model is done, or nil.
func (m *Model) Stream() *media.ResolvedStream { return m.stream }

// Err returns the terminal error once the model is done, or nil.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(orchestrate.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.stream = msg.Stream
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) apply(e orchestrate.Event) {
	switch e.Kind {
	case orchestrate.EventInit:
		m.total = e.Total
	case orchestrate.EventStart:
		m.probes = append(m.probes, probeState{providerID: e.ProviderID})
	case orchestrate.EventUpdate:
		for i := range m.probes {
			if m.probes[i].providerID == e.ProviderID && !m.probes[i].settled {
				m.probes[i].status = e.Status
				m.probes[i].settled = true
				return
			}
		}
		m.probes = append(m.probes, probeState{providerID: e.ProviderID, status: e.Status, settled: true})
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resolving " + m.title))
	b.WriteString("\n\n")

	for _, p := range m.probes {
		switch {
		case !p.settled:
			b.WriteString(m.spinner.View() + " " + p.providerID)
		case p.status == orchestrate.StatusSuccess:
			b.WriteString(successStyle.Render("✓ " + p.providerID))
		case p.status == orchestrate.StatusNotFound:
			b.WriteString(dimStyle.Render("∅ " + p.providerID))
		default:
			b.WriteString(failureStyle.Render("✗ " + p.providerID))
		}
		b.WriteString("\n")
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString("\n" + failureStyle.Render(m.err.Error()))
	case m.done && m.stream != nil:
		b.WriteString("\n" + successStyle.Render("stream ready: "+m.stream.URL))
	default:
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("%d providers in catalogue • q: cancel", m.total)))
	}

	return docStyle.Render(b.String())
}

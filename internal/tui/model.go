// Package tui is the interactive sink for a running job: a bubbletea program
// that polls the job's event channel on a refresh tick and renders the
// latest snapshot.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"delivery/internal/encoding"
	"delivery/internal/encodingstate"
)

const refreshInterval = 100 * time.Millisecond

// Source is the job side of the sink.
type Source interface {
	Events() <-chan encoding.Event
	Done() <-chan struct{}
}

type Model struct {
	source     Source
	cancel     func()
	title      string
	snapshot   encodingstate.Snapshot
	started    time.Time
	width      int
	cancelling bool
	quitting   bool
}

type tickMsg time.Time

// NewModel builds a model for source. cancel is invoked once when the user
// presses p, q or ctrl+c.
func NewModel(source Source, cancel func(), title string) Model {
	return Model{source: source, cancel: cancel, title: title, started: time.Now()}
}

// Snapshot returns the last state the model rendered.
func (m Model) Snapshot() encodingstate.Snapshot { return m.snapshot }

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		for _, ev := range encoding.Drain(m.source.Events()) {
			m.snapshot.Apply(ev)
		}
		select {
		case <-m.source.Done():
			for _, ev := range encoding.Drain(m.source.Events()) {
				m.snapshot.Apply(ev)
			}
			m.quitting = true
			return m, tea.Quit
		default:
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "p", "q", "ctrl+c":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	status := m.snapshot.Status
	if status == "" {
		status = "Preparing..."
	}
	hint := "p pause  q quit"
	if m.cancelling {
		hint = "stopping ffmpeg..."
	}

	lines := []string{
		titleStyle.Render(m.title),
		labelStyle.Render(status),
		barStyle.Render(renderBar(barWidth, m.snapshot.Percent/100)) + labelStyle.Render(fmt.Sprintf(" %5.1f%%", m.snapshot.Percent)),
	}
	if m.snapshot.RequiredGB > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Estimated storage: %.2fGB", m.snapshot.RequiredGB)))
	}
	if m.snapshot.Error != "" {
		lines = append(lines, errorStyle.Render(m.snapshot.Error))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s  %s", time.Since(m.started).Round(time.Second), hint)))
	return strings.Join(lines, "\n")
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"delivery/internal/encodingstate"
)

// Run blocks until the job finishes and returns the final snapshot.
func Run(source Source, cancel func(), title string) (encodingstate.Snapshot, error) {
	program := tea.NewProgram(NewModel(source, cancel, title))
	final, err := program.Run()
	if err != nil {
		return encodingstate.Snapshot{}, err
	}
	if model, ok := final.(Model); ok {
		return model.Snapshot(), nil
	}
	return encodingstate.Snapshot{}, nil
}

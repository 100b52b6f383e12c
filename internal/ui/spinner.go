package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerModel struct {
	spinner spinner.Model
	label   string
	work    func() error
	err     error
	done    bool
}

type workDoneMsg struct{ err error }

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return workDoneMsg{err: m.work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// RunWithSpinner runs work while animating a spinner labeled label, used
// for operations like worktree removal that can take a perceptible amount
// of time on a large repository.
func RunWithSpinner(label string, work func() error) error {
	s := spinner.New()
	s.Spinner = spinner.Dot
	m := spinnerModel{spinner: s, label: label, work: work}

	program := tea.NewProgram(m)
	result, err := program.Run()
	if err != nil {
		return fmt.Errorf("run spinner: %w", err)
	}
	return result.(spinnerModel).err
}

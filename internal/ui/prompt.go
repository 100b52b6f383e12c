package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	prompt     string
	defaultYes bool
	answer     bool
	done       bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.answer, m.done = false, true
		return m, tea.Quit
	case "enter":
		m.answer, m.done = m.defaultYes, true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	hint := "[y/N]"
	if m.defaultYes {
		hint = "[Y/n]"
	}
	return fmt.Sprintf("%s %s ", m.prompt, hint)
}

// runConfirmPrompt renders a y/n prompt and blocks until the user answers
// or cancels (cancellation is treated as "no").
func runConfirmPrompt(prompt string, defaultYes bool) (bool, error) {
	m := confirmModel{prompt: prompt, defaultYes: defaultYes}
	program := tea.NewProgram(m)
	result, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("run confirm prompt: %w", err)
	}
	return result.(confirmModel).answer, nil
}

type selectModel struct {
	prompt   string
	options  []string
	cursor   int
	chosen   int
	canceled bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	s := m.prompt + "\n"
	for i, opt := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		s += fmt.Sprintf("%s%s\n", cursor, opt)
	}
	return s
}

// runSelectPrompt renders an arrow-key select prompt and returns the chosen
// index, or an error if the user cancels.
func runSelectPrompt(prompt string, options []string) (int, error) {
	m := selectModel{prompt: prompt, options: options, chosen: -1}
	program := tea.NewProgram(m)
	result, err := program.Run()
	if err != nil {
		return -1, fmt.Errorf("run select prompt: %w", err)
	}
	final := result.(selectModel)
	if final.canceled {
		return -1, ErrCancelled
	}
	return final.chosen, nil
}

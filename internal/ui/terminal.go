package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleCase renders a sandbox state label ("live", "dangling", "broken")
// the way list/doctor output presents it to users.
func TitleCase(s string) string {
	return titleCaser.String(s)
}

// Terminal is the interactive, color-capable Output implementation used
// when stdout is a TTY and prompts are allowed.
type Terminal struct {
	out      io.Writer
	color    bool
	noPrompt bool

	sectionStyle lipgloss.Style
	successStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
	labelStyle   lipgloss.Style
}

// NewTerminal builds a Terminal writing to w. color forces ANSI styling
// on/off; pass AutoColor(w) to decide from the TTY. noPrompt disables
// interactive prompts, falling back to defaults/errors the way Quiet does.
func NewTerminal(w io.Writer, color bool, noPrompt bool) *Terminal {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(colorProfile(color))

	return &Terminal{
		out:          w,
		color:        color,
		noPrompt:     noPrompt,
		sectionStyle: renderer.NewStyle().Bold(true).Underline(true),
		successStyle: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		warningStyle: renderer.NewStyle().Foreground(lipgloss.Color("3")),
		errorStyle:   renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		labelStyle:   renderer.NewStyle().Faint(true),
	}
}

func colorProfile(color bool) termenv.Profile {
	if color {
		return termenv.ANSI256
	}
	return termenv.Ascii
}

// AutoColor decides whether color should be on by default: only when w is
// connected to a terminal.
func AutoColor(w *os.File) bool {
	return term.IsTerminal(int(w.Fd()))
}

func (t *Terminal) Section(title string) {
	fmt.Fprintln(t.out, t.sectionStyle.Render(title))
}

func (t *Terminal) Info(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *Terminal) Success(format string, args ...any) {
	fmt.Fprintln(t.out, t.successStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Warning(format string, args ...any) {
	fmt.Fprintln(t.out, t.warningStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Error(format string, args ...any) {
	fmt.Fprintln(t.out, t.errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Status(label, value string) {
	fmt.Fprintf(t.out, "  %s %s\n", t.labelStyle.Render(label+":"), value)
}

func (t *Terminal) Confirm(prompt string, defaultYes bool) (bool, error) {
	if t.noPrompt {
		return defaultYes, nil
	}
	return runConfirmPrompt(prompt, defaultYes)
}

func (t *Terminal) Select(prompt string, options []string) (int, error) {
	if t.noPrompt {
		return -1, fmt.Errorf("prompts disabled: cannot select among %d options for %q", len(options), prompt)
	}
	return runSelectPrompt(prompt, options)
}

func (t *Terminal) Finish() error {
	if t.color {
		// Reset any ANSI attributes Section/Success/etc. may have left
		// active before the process exits.
		fmt.Fprint(t.out, "\x1b[0m")
	}
	return nil
}

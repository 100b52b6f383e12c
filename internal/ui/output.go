// Package ui is sbx's capability interface toward the user: every
// subcommand renders through an Output implementation instead of printing
// directly, so tests can swap in a Quiet or recording implementation and
// --quiet can suppress everything but the facts a script actually needs.
package ui

import "errors"

// ErrCancelled is returned by Select when the user cancels the prompt
// (ctrl-c or esc) instead of choosing an option. Confirm never returns it:
// a cancelled confirm is treated as "no" per its own contract.
var ErrCancelled = errors.New("selection canceled")

// Output is the capability interface every CLI command renders through.
type Output interface {
	// Section prints a titled block header, e.g. "Sandbox: feature".
	Section(title string)
	// Info prints an informational line.
	Info(format string, args ...any)
	// Success prints a positive-outcome line.
	Success(format string, args ...any)
	// Warning prints a line that needs attention but isn't fatal.
	Warning(format string, args ...any)
	// Error prints a failure line.
	Error(format string, args ...any)
	// Status prints a label/value pair, e.g. "branch: present".
	Status(label, value string)

	// Confirm asks a yes/no question. When prompts are disabled it
	// returns defaultYes without blocking.
	Confirm(prompt string, defaultYes bool) (bool, error)
	// Select asks the user to pick one of options by label, returning its
	// index. When prompts are disabled it returns an error: there is no
	// safe default to fall back to for an open-ended choice.
	Select(prompt string, options []string) (int, error)

	// Finish flushes any buffered state and resets terminal attributes
	// that Section/Info/etc. may have left active (e.g. ANSI color).
	Finish() error
}

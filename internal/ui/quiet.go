package ui

import (
	"fmt"
	"os"
)

// Quiet is the Output implementation used with --quiet: it suppresses
// every informational line and answers prompts from their defaults,
// erroring out for an open-ended Select rather than guessing.
type Quiet struct{}

// NewQuiet returns a Quiet Output.
func NewQuiet() Quiet { return Quiet{} }

func (Quiet) Section(string)         {}
func (Quiet) Info(string, ...any)    {}
func (Quiet) Success(string, ...any) {}
func (Quiet) Warning(string, ...any) {}
func (Quiet) Status(string, string)  {}

// Error still surfaces failures: --quiet suppresses progress noise, not
// the reason a command failed.
func (Quiet) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (Quiet) Confirm(_ string, defaultYes bool) (bool, error) {
	return defaultYes, nil
}

func (Quiet) Select(prompt string, options []string) (int, error) {
	return -1, fmt.Errorf("cannot select among %d options for %q with --quiet", len(options), prompt)
}

func (Quiet) Finish() error { return nil }

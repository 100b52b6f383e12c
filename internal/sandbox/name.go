package sandbox

import "regexp"

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName reports whether name is a legal sandbox name: non-empty and
// composed only of letters, digits, underscores, and hyphens. Sandbox
// names flow directly into branch names and filesystem paths, so this is
// checked before any effect of a command is attempted.
func ValidateName(name string) error {
	if name == "" {
		return &SandboxError{Name: name, Message: "sandbox name must not be empty"}
	}
	if !nameRe.MatchString(name) {
		return &SandboxError{Name: name, Message: "sandbox name must match [A-Za-z0-9_-]+"}
	}
	return nil
}

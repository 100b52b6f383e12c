package sandbox

import (
	"errors"
	"fmt"
)

// CommandExitError reports that a command run inside a sandbox exited with
// a non-zero status; the CLI propagates Code as its own exit status.
type CommandExitError struct {
	Code int
}

func (e *CommandExitError) Error() string {
	return fmt.Sprintf("command exited with status code: %d", e.Code)
}

// SandboxError reports that a requested operation failed because of the
// sandbox's own state (e.g. attempting to create one that already exists).
type SandboxError struct {
	Name    string
	Message string
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("sandbox error: %s", e.Message)
}

// UserAbortedError reports that the user declined a confirmation prompt.
type UserAbortedError struct{}

func (e *UserAbortedError) Error() string { return "aborted by user" }

// ContextError reports a failed precondition, such as not being inside a
// git repository.
type ContextError struct {
	Message string
}

func (e *ContextError) Error() string { return fmt.Sprintf("context error: %s", e.Message) }

// OperationError reports a high-level operation failure with no more
// specific classification.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string { return fmt.Sprintf("operation failed: %s", e.Message) }

// VcsError reports that a git command failed.
type VcsError struct {
	Message string
}

func (e *VcsError) Error() string { return fmt.Sprintf("git error: %s", e.Message) }

// BaseError reports that base-commit resolution failed for a sandbox.
type BaseError struct {
	Name    string
	Message string
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("base commit error for sandbox %q: %s", e.Name, e.Message)
}

// UncommittedChangesError reports that the source repository has
// uncommitted changes and the active policy forbids proceeding.
type UncommittedChangesError struct {
	RepoDir string
}

func (e *UncommittedChangesError) Error() string {
	return fmt.Sprintf("uncommitted changes present in repository: %s", e.RepoDir)
}

// ExitCode returns the recommended process exit code for err, following
// the same taxonomy the CLI uses to translate engine failures into process
// exit statuses. Unrecognized errors (including plain I/O errors) map to 1.
func ExitCode(err error) int {
	var (
		cmdExit     *CommandExitError
		aborted     *UserAbortedError
		sandboxErr  *SandboxError
		uncommitted *UncommittedChangesError
		baseErr     *BaseError
		vcsErr      *VcsError
	)
	switch {
	case errors.As(err, &cmdExit):
		return cmdExit.Code
	case errors.As(err, &aborted):
		return 130
	case errors.As(err, &sandboxErr):
		return 2
	case errors.As(err, &uncommitted):
		return 2
	case errors.As(err, &baseErr):
		return 3
	case errors.As(err, &vcsErr):
		return 4
	default:
		return 1
	}
}

package vcs

import (
	"fmt"
	"os/exec"
)

// Detect verifies that the `git` binary is available on PATH and that
// startDir sits inside a git repository, returning a ready-to-use Gateway
// together with the repository root.
func Detect(startDir string) (Gateway, string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, "", fmt.Errorf("git not found on PATH: %w", err)
	}

	gw := NewGitGateway()
	root, ok := gw.FindRoot(startDir)
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", startDir, ErrNotARepo)
	}
	return gw, root, nil
}

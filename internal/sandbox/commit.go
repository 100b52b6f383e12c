package sandbox

import "os"

// CommitAll stages every change in a sandbox and commits it with message,
// the non-interactive path used by `run --commit`.
func (e *Engine) CommitAll(name, message string) error {
	worktreePath := e.WorktreePath(name)
	if err := e.gw.AddAll(worktreePath); err != nil {
		return &VcsError{Message: err.Error()}
	}
	if err := e.gw.Commit(worktreePath, message); err != nil {
		return &VcsError{Message: err.Error()}
	}
	return nil
}

// CommitInteractive stages every change in a sandbox and launches
// `git commit --verbose` attached to the calling process's stdio, the
// path used by the post-run Commit action.
func (e *Engine) CommitInteractive(name string) error {
	worktreePath := e.WorktreePath(name)
	if err := e.gw.AddAll(worktreePath); err != nil {
		return &VcsError{Message: err.Error()}
	}
	if err := e.gw.CommitInteractive(worktreePath); err != nil {
		return &VcsError{Message: err.Error()}
	}
	return nil
}

// RemoveWorktreeKeepBranch removes a sandbox's worktree and directory but
// leaves its branch intact, the path used by the post-run BranchOnly
// action. Metadata is removed since there is no longer a sandbox to
// resolve a diff base for.
func (e *Engine) RemoveWorktreeKeepBranch(name string) error {
	worktreePath := e.WorktreePath(name)
	if err := e.gw.RemoveWorktree(e.RepoDir, worktreePath, true); err != nil {
		return &VcsError{Message: err.Error()}
	}
	if _, err := os.Stat(worktreePath); err == nil {
		if err := os.RemoveAll(worktreePath); err != nil {
			return &OperationError{Message: err.Error()}
		}
	}
	if err := e.metadata.Remove(name); err != nil {
		return &OperationError{Message: err.Error()}
	}
	return nil
}

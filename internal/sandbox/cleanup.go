package sandbox

import (
	"os"

	"github.com/sbxtool/sbx/internal/vcs"
)

// forceRemoveSandbox unconditionally tears down every component of a
// sandbox that still exists — worktree, directory, branch, metadata — in
// that order, aborting on the first failing step without rolling back
// completed ones (each step is independently idempotent, so a rerun picks
// up where it left off). This is the removal path: PlanRemoval has already
// resolved which blockers the caller is allowing, so by the time this runs
// nothing here is conditional on sandbox state.
func (e *Engine) forceRemoveSandbox(name string, status Status) (CleanupReport, error) {
	report := CleanupReport{Status: status}
	worktreePath := e.WorktreePath(name)
	branch := BranchName(name)

	if status.HasWorktree {
		if err := e.gw.RemoveWorktree(e.RepoDir, worktreePath, true); err != nil {
			return report, &VcsError{Message: err.Error()}
		}
		report.WorktreeRemoved = true
	}

	if status.HasWorktreeDir {
		if _, err := os.Stat(worktreePath); err == nil {
			if err := os.RemoveAll(worktreePath); err != nil {
				return report, &OperationError{Message: err.Error()}
			}
			report.DirectoryRemoved = true
		}
	}

	if status.HasBranch {
		if err := e.gw.DeleteBranch(e.RepoDir, branch, true); err != nil {
			return report, &VcsError{Message: err.Error()}
		}
		report.BranchRemoved = true
	}

	if err := e.metadata.Remove(name); err != nil {
		return report, &OperationError{Message: err.Error()}
	}

	return report, nil
}

// cleanupSandbox is kept as an alias of forceRemoveSandbox for Remove's use;
// removal and cleanup diverge in whether each step is conditional, not in
// what the steps do when they run.
func (e *Engine) cleanupSandbox(name string, status Status) (CleanupReport, error) {
	return e.forceRemoveSandbox(name, status)
}

// softCleanSandbox applies the conservative, non-force cleanup rules: each
// component is only removed when it is safe to assume the caller does not
// want it anymore, unlike Remove which a caller has already confirmed past
// its blockers.
func (e *Engine) softCleanSandbox(name string, status Status) (CleanupReport, error) {
	report := CleanupReport{Status: status}
	worktreePath := e.WorktreePath(name)
	branch := BranchName(name)

	if status.HasWorktree && !status.HasUncommittedChanges {
		if err := e.gw.RemoveWorktree(e.RepoDir, worktreePath, false); err != nil {
			return report, &VcsError{Message: err.Error()}
		}
		report.WorktreeRemoved = true
	}

	if status.HasWorktreeDir && !status.HasWorktree {
		if _, err := os.Stat(worktreePath); err == nil {
			if err := os.RemoveAll(worktreePath); err != nil {
				return report, &OperationError{Message: err.Error()}
			}
			report.DirectoryRemoved = true
		}
	}

	// The branch goes once it is fully merged and no checkout refers to it
	// anymore: either this pass just removed the worktree, or there never
	// was one and the directory is gone too.
	branchUnreferenced := report.WorktreeRemoved || (!status.HasWorktree && !status.HasWorktreeDir)
	if status.HasBranch && status.MergeStatus == vcs.MergeStatusClean && branchUnreferenced {
		if err := e.gw.DeleteBranch(e.RepoDir, branch, false); err != nil {
			return report, &VcsError{Message: err.Error()}
		}
		report.BranchRemoved = true
	}

	if report.WorktreeRemoved || report.DirectoryRemoved || report.BranchRemoved {
		if err := e.metadata.Remove(name); err != nil {
			return report, &OperationError{Message: err.Error()}
		}
	}

	return report, nil
}

// Clean applies the conservative cleanup rules to a single named sandbox.
func (e *Engine) Clean(name string) (CleanupReport, error) {
	if err := ValidateName(name); err != nil {
		return CleanupReport{}, err
	}
	status, err := e.GetStatus(name)
	if err != nil {
		return CleanupReport{}, err
	}
	return e.softCleanSandbox(name, status)
}

// CleanAll sweeps every known sandbox, applying the conservative cleanup
// rules to each and collecting per-sandbox successes and failures into a
// single batch report. A failure on one sandbox never stops the sweep of
// the others.
func (e *Engine) CleanAll() (CleanupBatch, error) {
	names, err := e.AllSandboxNames()
	if err != nil {
		return CleanupBatch{}, err
	}

	var batch CleanupBatch
	for _, name := range names {
		status, err := e.GetStatus(name)
		if err != nil {
			batch.Failures = append(batch.Failures, CleanupFailure{SandboxName: name, Err: err})
			continue
		}

		report, err := e.softCleanSandbox(name, status)
		if err != nil {
			batch.Failures = append(batch.Failures, CleanupFailure{SandboxName: name, Err: err})
			continue
		}
		batch.Reports = append(batch.Reports, report)
	}

	return batch, nil
}

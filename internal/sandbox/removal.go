package sandbox

import "github.com/sbxtool/sbx/internal/vcs"

// PlanRemoval inspects a sandbox and reports the blockers that would
// require explicit confirmation before it is safe to remove.
func (e *Engine) PlanRemoval(name string) (*RemovalPlan, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	status, err := e.GetStatus(name)
	if err != nil {
		return nil, err
	}

	var blockers []RemovalBlocker
	if status.HasUncommittedChanges {
		blockers = append(blockers, BlockerUncommittedChanges)
	}
	switch status.MergeStatus {
	case vcs.MergeStatusDiverged:
		blockers = append(blockers, BlockerUnmergedCommits)
	case vcs.MergeStatusUnknown:
		if status.HasBranch {
			blockers = append(blockers, BlockerMergeStatusUnknown)
		}
	}

	return &RemovalPlan{Status: status, Blockers: blockers}, nil
}

// Remove tears down a sandbox's worktree, branch, and metadata, applying
// opts to decide whether any blockers from PlanRemoval should stop it.
func (e *Engine) Remove(name string, opts RemovalOptions) (RemovalOutcome, error) {
	plan, err := e.PlanRemoval(name)
	if err != nil {
		return RemovalOutcome{}, err
	}

	var blocked []RemovalBlocker
	for _, b := range plan.Blockers {
		switch b {
		case BlockerUncommittedChanges:
			if !opts.AllowUncommittedChanges {
				blocked = append(blocked, b)
			}
		case BlockerUnmergedCommits:
			if !opts.AllowUnmergedCommits {
				blocked = append(blocked, b)
			}
		case BlockerMergeStatusUnknown:
			if !opts.AllowUnknownMergeStatus {
				blocked = append(blocked, b)
			}
		}
	}
	if len(blocked) > 0 {
		return RemovalOutcome{Removed: false, Blockers: blocked}, nil
	}

	if _, err := e.cleanupSandbox(name, plan.Status); err != nil {
		return RemovalOutcome{}, err
	}

	return RemovalOutcome{Removed: true}, nil
}

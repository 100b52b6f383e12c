package sandbox

import (
	"fmt"
	"os"
)

// PlanDiff resolves the base commit to diff a sandbox against and collects
// the untracked files that need their own `git diff --no-index` treatment,
// since a plain `git diff <base>` never shows untracked content. A non-empty
// baseOverride is resolved as-is, with no fallback.
func (e *Engine) PlanDiff(name, baseOverride string) (*DiffPlan, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	worktreePath := e.WorktreePath(name)
	if info, err := os.Stat(worktreePath); err != nil || !info.IsDir() {
		return nil, &SandboxError{Name: name, Message: "sandbox has no worktree directory to diff"}
	}

	base, usedFallback, fallbackTarget, err := e.resolveBaseCommit(name, baseOverride)
	if err != nil {
		return nil, err
	}

	untracked, err := e.gw.UntrackedFiles(worktreePath)
	if err != nil {
		return nil, &VcsError{Message: err.Error()}
	}

	return &DiffPlan{
		SandboxName:    name,
		SandboxPath:    worktreePath,
		BaseCommit:     base,
		UsedFallback:   usedFallback,
		FallbackTarget: fallbackTarget,
		UntrackedFiles: untracked,
	}, nil
}

// resolveBaseCommit follows the fallback chain: an explicit override wins
// outright; otherwise the recorded base commit is verified against the
// object store (history rewrites can garbage-collect it), and when it is
// gone the merge-base against the recorded base ref, then against the
// hardcoded "origin/main", is tried in that order.
func (e *Engine) resolveBaseCommit(name, baseOverride string) (commit string, usedFallback bool, fallbackTarget string, err error) {
	worktreePath := e.WorktreePath(name)
	branch := BranchName(name)

	if baseOverride != "" {
		resolved, err := e.gw.RevParse(worktreePath, baseOverride)
		if err != nil {
			return "", false, "", &BaseError{
				Name:    name,
				Message: fmt.Sprintf("override %q could not be resolved: %v", baseOverride, err),
			}
		}
		return resolved, false, "", nil
	}

	rec, recErr := e.metadata.Read(name)
	if recErr != nil {
		return "", false, "", &OperationError{Message: recErr.Error()}
	}
	if rec == nil {
		return "", false, "", &BaseError{Name: name, Message: "no metadata recorded for sandbox"}
	}

	// ^{commit} forces an object-store lookup: a bare 40-hex rev-parse
	// succeeds even when the commit no longer exists.
	if resolved, err := e.gw.RevParse(worktreePath, rec.BaseCommit+"^{commit}"); err == nil {
		return resolved, false, "", nil
	}

	candidates := []string{}
	if rec.BaseRef != "" {
		candidates = append(candidates, rec.BaseRef)
	}
	candidates = append(candidates, "origin/main")

	for _, target := range candidates {
		if base, err := e.gw.MergeBase(e.RepoDir, target, branch); err == nil {
			return base, true, target, nil
		}
	}

	return "", false, "", &BaseError{
		Name:    name,
		Message: fmt.Sprintf("could not resolve base commit %q and no merge-base fallback succeeded", rec.BaseCommit),
	}
}

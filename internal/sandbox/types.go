package sandbox

import (
	"github.com/sbxtool/sbx/internal/session"
	"github.com/sbxtool/sbx/internal/vcs"
)

// BranchPrefix namespaces every branch sbx creates so sandbox branches never
// collide with a project's own branches.
const BranchPrefix = "sbx"

// BranchName returns the branch name sbx uses for a sandbox.
func BranchName(sandboxName string) string {
	return BranchPrefix + "/" + sandboxName
}

// UncommittedPolicy controls how sandbox creation handles a dirty source
// repository.
type UncommittedPolicy int

const (
	// UncommittedAbort fails sandbox creation when the repository is
	// dirty.
	UncommittedAbort UncommittedPolicy = iota
	// UncommittedInclude carries uncommitted changes into the new
	// sandbox.
	UncommittedInclude
	// UncommittedClean resets the sandbox to a clean state once created,
	// leaving the source repository's own working tree untouched.
	UncommittedClean
)

// PrepareOptions configures sandbox creation/attachment.
type PrepareOptions struct {
	UncommittedPolicy UncommittedPolicy
	Excludes          []string
}

// PreparePlan is the result of preparing a sandbox for use.
type PreparePlan struct {
	Session *Session
	Created bool
	Cleaned bool
}

// Status captures point-in-time information about a sandbox's components.
type Status struct {
	Name                  string
	HasBranch             bool
	HasWorktree           bool
	HasWorktreeDir        bool
	WorktreeBranch        string
	WorktreeDetached      bool
	WorktreeBranchMatches bool
	HasUncommittedChanges bool
	DiffStats             *vcs.DiffStats
	MergeStatus           vcs.MergeStatus
	UnmergedCommits       []vcs.CommitInfo
	IsDangling            bool
}

// IsLive reports whether the sandbox has both a worktree and a branch in a
// mutually consistent state.
func (s Status) IsLive() bool {
	return s.HasBranch && s.HasWorktree && s.HasWorktreeDir &&
		(s.WorktreeDetached || s.WorktreeBranchMatches)
}

// IsBroken reports whether the sandbox exists in some partial,
// inconsistent state: not live, but not simply absent either.
func (s Status) IsBroken() bool {
	if s.IsLive() || s.IsDangling {
		return false
	}
	return s.HasBranch || s.HasWorktree || s.HasWorktreeDir
}

// IsNone reports whether the sandbox has no trace on disk or in git at all.
func (s Status) IsNone() bool {
	return !s.HasBranch && !s.HasWorktree && !s.HasWorktreeDir
}

// ComponentStatus summarizes which sandbox components are present, in the
// same terse form sbx's CLI prints.
func (s Status) ComponentStatus() string {
	branch, worktree, directory := "missing", "missing", "missing"
	if s.HasBranch {
		branch = "present"
	}
	if s.HasWorktree {
		worktree = "present"
	}
	if s.HasWorktreeDir {
		directory = "present"
	}

	parts := []string{
		"branch: " + branch,
		"worktree: " + worktree,
		"directory: " + directory,
	}
	if s.IsDangling {
		parts = append(parts, "state: dangling")
	}
	if s.HasWorktree {
		if s.WorktreeDetached {
			parts = append(parts, "worktree-branch: detached")
		} else if s.WorktreeBranch != "" && !s.WorktreeBranchMatches {
			parts = append(parts, "worktree-branch: "+s.WorktreeBranch)
		}
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// Session is an active lease on a sandbox, returned by Engine.Prepare.
type Session struct {
	Name  string
	Path  string
	lease *session.Lease
}

// Release releases the underlying session lease and reports whether it was
// the last active connection for this sandbox. When it was, the returned
// outcome's CleanupGuard must be released by the caller once cleanup (if
// any) has finished.
func (s *Session) Release() (session.ReleaseOutcome, error) {
	return s.lease.Release()
}

// ListEntry pairs a sandbox's status with its active connection count, for
// `sbx list`.
type ListEntry struct {
	Status            Status
	ActiveConnections int
}

// DiffPlan describes how to show a diff for a sandbox.
type DiffPlan struct {
	SandboxName    string
	SandboxPath    string
	BaseCommit     string
	UsedFallback   bool
	FallbackTarget string
	UntrackedFiles []string
}

// RemovalBlocker names a reason removal requires explicit confirmation.
type RemovalBlocker int

const (
	BlockerUncommittedChanges RemovalBlocker = iota
	BlockerUnmergedCommits
	BlockerMergeStatusUnknown
)

func (b RemovalBlocker) String() string {
	switch b {
	case BlockerUncommittedChanges:
		return "uncommitted changes"
	case BlockerUnmergedCommits:
		return "unmerged commits"
	case BlockerMergeStatusUnknown:
		return "merge status unknown"
	default:
		return "unknown blocker"
	}
}

// RemovalPlan captures a sandbox's status together with any blockers that
// would require confirmation before removal.
type RemovalPlan struct {
	Status   Status
	Blockers []RemovalBlocker
}

// RemovalOptions controls which blockers a removal is allowed to override.
type RemovalOptions struct {
	AllowUncommittedChanges bool
	AllowUnmergedCommits    bool
	AllowUnknownMergeStatus bool
}

// ForceRemovalOptions allows removal regardless of any blocker.
func ForceRemovalOptions() RemovalOptions {
	return RemovalOptions{true, true, true}
}

// RemovalOutcome is the result of attempting a removal with options
// applied.
type RemovalOutcome struct {
	Removed  bool
	Blockers []RemovalBlocker
}

// CleanupReport describes what a cleanup operation actually did.
type CleanupReport struct {
	Status           Status
	WorktreeRemoved  bool
	BranchRemoved    bool
	DirectoryRemoved bool
}

// CleanupFailure captures a per-sandbox error encountered during a batch
// cleanup.
type CleanupFailure struct {
	SandboxName string
	Err         error
}

// CleanupBatch collects the reports and failures from a multi-sandbox
// cleanup run.
type CleanupBatch struct {
	Reports  []CleanupReport
	Failures []CleanupFailure
}

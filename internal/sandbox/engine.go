// Package sandbox implements the sandbox lifecycle engine: it turns a
// named sandbox into a git worktree/branch pair at a stable path, tracks
// how many processes are attached to it via internal/session, and persists
// the metadata needed to resolve a diff base via internal/metadata.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/sbxtool/sbx/internal/metadata"
	"github.com/sbxtool/sbx/internal/session"
	"github.com/sbxtool/sbx/internal/vcs"
)

// Engine orchestrates the sandbox lifecycle for one source repository.
type Engine struct {
	RepoDir  string // root of the source git repository
	StateDir string // project directory: ⟨base⟩/⟨project⟩

	gw       vcs.Gateway
	metadata *metadata.Store
	sessions *session.Manager
}

var projectSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ProjectName derives the project identity from a repository root: its
// directory basename, with every character outside [A-Za-z0-9_-] replaced
// by '-'.
func ProjectName(repoDir string) string {
	base := filepath.Base(filepath.Clean(repoDir))
	return projectSanitizeRe.ReplaceAllString(base, "-")
}

// NewEngine builds an Engine for repoDir, with sbx's persisted state rooted
// under sbxRoot (the resolved --dir value). The project directory is
// ⟨sbxRoot⟩/⟨sanitized basename of repoDir⟩.
func NewEngine(gw vcs.Gateway, sbxRoot, repoDir string) (*Engine, error) {
	absRepo, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolve repo dir: %w", err)
	}

	stateDir := filepath.Join(sbxRoot, ProjectName(absRepo))
	return &Engine{
		RepoDir:  absRepo,
		StateDir: stateDir,
		gw:       gw,
		metadata: metadata.NewStore(stateDir),
		sessions: session.NewManager(stateDir),
	}, nil
}

// SandboxesDir is the project directory sandbox worktrees are checked out
// directly beneath.
func (e *Engine) SandboxesDir() string {
	return e.StateDir
}

// WorktreePath returns the filesystem path for a named sandbox.
func (e *Engine) WorktreePath(name string) string {
	return filepath.Join(e.StateDir, name)
}

// ReapLeases force-prunes stale session leases for a sandbox and reports
// how many were removed.
func (e *Engine) ReapLeases(name string) (int, error) {
	return e.sessions.Reap(name)
}

// RemoveMetadata deletes orphaned metadata for a sandbox that has no
// surviving branch, worktree, or directory.
func (e *Engine) RemoveMetadata(name string) error {
	return e.metadata.Remove(name)
}

// HasMetadata reports whether metadata is recorded for a sandbox name.
func (e *Engine) HasMetadata(name string) (bool, error) {
	rec, err := e.metadata.Read(name)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// RepoHasUncommittedChanges reports whether the source repository's own
// working tree is dirty.
func (e *Engine) RepoHasUncommittedChanges() (bool, error) {
	dirty, err := e.gw.HasUncommittedChanges(e.RepoDir)
	if err != nil {
		return false, &VcsError{Message: err.Error()}
	}
	return dirty, nil
}

// GetStatus classifies the current state of a named sandbox by consulting
// git directly: branch presence, worktree registration, and directory
// presence are each checked independently so inconsistent states (a
// registered worktree whose directory was deleted out from under git, a
// branch with no worktree, etc.) are all represented rather than
// collapsed.
func (e *Engine) GetStatus(name string) (Status, error) {
	status := Status{Name: name}
	branch := BranchName(name)
	worktreePath := e.WorktreePath(name)

	hasBranch, err := e.gw.BranchExists(e.RepoDir, branch)
	if err != nil {
		return status, &VcsError{Message: err.Error()}
	}
	status.HasBranch = hasBranch

	worktrees, err := e.gw.ListWorktrees(e.RepoDir)
	if err != nil {
		return status, &VcsError{Message: err.Error()}
	}
	var registered *vcs.WorktreeInfo
	for i := range worktrees {
		if sameWorktreePath(worktrees[i].Path, worktreePath) {
			registered = &worktrees[i]
			break
		}
	}
	status.HasWorktree = registered != nil
	if registered != nil {
		status.WorktreeBranch = registered.Branch
		status.WorktreeDetached = registered.IsDetached
		status.WorktreeBranchMatches = registered.Branch == branch
	}

	if info, err := os.Stat(worktreePath); err == nil && info.IsDir() {
		status.HasWorktreeDir = true
	}

	status.IsDangling = (status.HasWorktree && !status.HasWorktreeDir) ||
		(status.HasWorktreeDir && !status.HasBranch)

	if status.HasWorktreeDir {
		dirty, err := e.gw.HasUncommittedChanges(worktreePath)
		if err == nil {
			status.HasUncommittedChanges = dirty
		}
		if stats, err := e.gw.DiffStat(worktreePath); err == nil {
			status.DiffStats = &stats
		}
	}

	if status.HasBranch {
		mergeStatus, err := e.gw.MergeStatusOf(e.RepoDir, branch)
		if err == nil {
			status.MergeStatus = mergeStatus
		}
		if commits, err := e.gw.UnmergedCommits(e.RepoDir, branch); err == nil {
			status.UnmergedCommits = commits
		}
	}

	return status, nil
}

func sameWorktreePath(a, b string) bool {
	if a == b {
		return true
	}
	canonA, errA := filepath.EvalSymlinks(a)
	canonB, errB := filepath.EvalSymlinks(b)
	if errA == nil && errB == nil {
		return canonA == canonB
	}
	absA, errA2 := filepath.Abs(a)
	absB, errB2 := filepath.Abs(b)
	return errA2 == nil && errB2 == nil && absA == absB
}

// AllSandboxNames returns the sorted union of every sandbox name known from
// git branches (sbx/*), registered worktrees, metadata records, and
// directories in the project directory (minus the reserved lease and
// metadata directories), so a sandbox missing one component still shows up.
func (e *Engine) AllSandboxNames() ([]string, error) {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	branches, err := e.gw.ListBranches(e.RepoDir)
	if err != nil {
		return nil, &VcsError{Message: err.Error()}
	}
	prefix := BranchPrefix + "/"
	for _, b := range branches {
		if len(b) > len(prefix) && b[:len(prefix)] == prefix {
			add(b[len(prefix):])
		}
	}

	worktrees, err := e.gw.ListWorktrees(e.RepoDir)
	if err != nil {
		return nil, &VcsError{Message: err.Error()}
	}
	sandboxesDir := e.SandboxesDir()
	for _, wt := range worktrees {
		rel, err := filepath.Rel(sandboxesDir, wt.Path)
		if err == nil && rel != ".." && !hasDotDotPrefix(rel) {
			add(rel)
		}
	}

	recorded, err := e.metadata.List()
	if err != nil {
		return nil, err
	}
	for _, n := range recorded {
		add(n)
	}

	entries, err := os.ReadDir(e.StateDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, &OperationError{Message: err.Error()}
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == session.DirName || name == metadata.DirName {
			continue
		}
		add(name)
	}

	sort.Strings(names)
	return names, nil
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}

// ListAll returns a ListEntry for every known sandbox.
func (e *Engine) ListAll() ([]ListEntry, error) {
	names, err := e.AllSandboxNames()
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(names))
	for _, name := range names {
		status, err := e.GetStatus(name)
		if err != nil {
			return nil, err
		}
		active, err := e.sessions.ActiveConnections(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ListEntry{Status: status, ActiveConnections: active})
	}
	return entries, nil
}

// Prepare implements the sandbox creation/attachment protocol: it creates
// the branch/worktree pair when the sandbox does not yet exist, records
// metadata on first creation, applies the uncommitted-changes policy, and
// finally acquires a session lease so concurrent attach/detach is tracked.
// The per-sandbox exclusive lock is held from before state classification
// until the lease is attached, so two processes can never race creation of
// the same sandbox.
func (e *Engine) Prepare(name string, opts PrepareOptions) (*PreparePlan, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	locked, err := e.sessions.Lock(name)
	if err != nil {
		return nil, &OperationError{Message: err.Error()}
	}

	created, cleaned, err := e.prepareLocked(name, opts)
	if err != nil {
		locked.Unlock()
		return nil, err
	}

	lease, err := locked.AcquireLease()
	if err != nil {
		return nil, &OperationError{Message: err.Error()}
	}

	return &PreparePlan{
		Session: &Session{Name: name, Path: e.WorktreePath(name), lease: lease},
		Created: created,
		Cleaned: cleaned,
	}, nil
}

func (e *Engine) prepareLocked(name string, opts PrepareOptions) (created, cleaned bool, err error) {
	status, err := e.GetStatus(name)
	if err != nil {
		return false, false, err
	}

	switch {
	case status.IsLive():
		// Attach to the existing sandbox as-is.
	case status.IsNone():
		if err := e.create(name, opts); err != nil {
			return false, false, err
		}
		created = true
	default:
		return false, false, &SandboxError{
			Name:    name,
			Message: fmt.Sprintf("sandbox %q is in a broken state (%s); run `sbx doctor %s` or remove it first", name, status.ComponentStatus(), name),
		}
	}

	if opts.UncommittedPolicy == UncommittedClean && (created || status.HasUncommittedChanges) {
		worktreePath := e.WorktreePath(name)
		if err := e.gw.ResetHard(worktreePath); err != nil {
			return created, false, &VcsError{Message: err.Error()}
		}
		if err := e.gw.Clean(worktreePath); err != nil {
			return created, false, &VcsError{Message: err.Error()}
		}
		cleaned = true
	}

	return created, cleaned, nil
}

func (e *Engine) create(name string, opts PrepareOptions) error {
	dirty, err := e.gw.HasUncommittedChanges(e.RepoDir)
	if err != nil {
		return &VcsError{Message: err.Error()}
	}
	if dirty && opts.UncommittedPolicy == UncommittedAbort {
		return &UncommittedChangesError{RepoDir: e.RepoDir}
	}

	baseCommit, err := e.gw.RevParse(e.RepoDir, "HEAD")
	if err != nil {
		return &VcsError{Message: err.Error()}
	}
	baseRef, _ := e.gw.HeadRef(e.RepoDir)

	if err := os.MkdirAll(e.SandboxesDir(), 0o755); err != nil {
		return &OperationError{Message: err.Error()}
	}

	worktreePath := e.WorktreePath(name)
	branch := BranchName(name)
	if err := e.gw.CreateWorktree(e.RepoDir, worktreePath, branch); err != nil {
		return &VcsError{Message: err.Error()}
	}

	// `git worktree add` only checks out committed content. Materialize
	// the repository's actual working tree on top of it so modified and
	// untracked files come along too; a Clean policy then discards the
	// copied-in changes below rather than skipping materialization, so
	// the sandbox always starts from the same clone-then-adjust path.
	if opts.UncommittedPolicy != UncommittedAbort {
		if err := MaterializeTree(e.RepoDir, worktreePath, opts.Excludes); err != nil {
			return &OperationError{Message: fmt.Sprintf("materialize sandbox contents: %v", err)}
		}
	}

	rec := &metadata.Record{
		BaseCommit: baseCommit,
		BaseRef:    baseRef,
		CreatedAt:  time.Now().Unix(),
	}
	if err := e.metadata.Write(name, rec); err != nil {
		return &OperationError{Message: err.Error()}
	}

	return nil
}

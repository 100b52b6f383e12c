package sandbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sbxtool/sbx/internal/metadata"
	"github.com/sbxtool/sbx/internal/vcs"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# repo"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "README.md")
	run("commit", "-m", "initial commit")
	return dir
}

func newTestEngine(t *testing.T, repoDir string) *Engine {
	t.Helper()
	gw := vcs.NewGitGateway()
	sbxRoot := t.TempDir()
	e, err := NewEngine(gw, sbxRoot, repoDir)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// releaseSession releases a session and its cleanup guard, so a leaked
// guard never keeps the sandbox lock held into the rest of a test.
func releaseSession(t *testing.T, s *Session) {
	t.Helper()
	outcome, err := s.Release()
	if err != nil {
		t.Fatal(err)
	}
	if outcome.IsLast() {
		outcome.Last.Release()
	}
}

func TestPrepareCreatesSandboxAndStatusIsLive(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	if !plan.Created {
		t.Fatal("expected sandbox to be created")
	}

	status, err := e.GetStatus("feature")
	if err != nil {
		t.Fatal(err)
	}
	if !status.IsLive() {
		t.Fatalf("expected live sandbox, got %+v", status)
	}

	if _, err := os.Stat(filepath.Join(e.WorktreePath("feature"), "README.md")); err != nil {
		t.Fatal(err)
	}

	outcome, err := plan.Session.Release()
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.IsLast() {
		t.Fatal("expected sole session to be last")
	}
	outcome.Last.Release()
}

func TestPrepareAbortsOnDirtyRepoByDefault(t *testing.T) {
	repoDir := initRepo(t)
	if err := os.WriteFile(filepath.Join(repoDir, "dirty.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, repoDir)

	_, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err == nil {
		t.Fatal("expected abort due to dirty repo")
	}
	if _, ok := err.(*UncommittedChangesError); !ok {
		t.Fatalf("expected UncommittedChangesError, got %T: %v", err, err)
	}
}

func TestPrepareIncludesUncommittedChanges(t *testing.T) {
	repoDir := initRepo(t)
	if err := os.WriteFile(filepath.Join(repoDir, "untracked.txt"), []byte("wip"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedInclude})
	if err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(filepath.Join(e.WorktreePath("feature"), "untracked.txt"))
	if err != nil {
		t.Fatalf("expected untracked file carried into sandbox: %v", err)
	}
	if string(content) != "wip" {
		t.Fatalf("got %q want %q", content, "wip")
	}

	releaseSession(t, plan.Session)
}

func TestListAllReportsDanglingSandbox(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan.Session)

	if err := os.RemoveAll(e.WorktreePath("feature")); err != nil {
		t.Fatal(err)
	}

	entries, err := e.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 sandbox, got %d", len(entries))
	}
	if !entries[0].Status.IsDangling {
		t.Fatalf("expected dangling status, got %+v", entries[0].Status)
	}
}

func TestStatusDanglingWhenDirectoryPresentWithoutBranch(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan.Session)

	// Detach the worktree from its branch, then delete the branch: the
	// directory survives with no branch behind it.
	wt := e.WorktreePath("feature")
	for _, args := range [][]string{
		{"-C", wt, "checkout", "--detach"},
		{"-C", repoDir, "branch", "-D", "sbx/feature"},
	} {
		if out, err := exec.Command("git", args...).CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	status, err := e.GetStatus("feature")
	if err != nil {
		t.Fatal(err)
	}
	if !status.IsDangling {
		t.Fatalf("expected dangling status, got %s", status.ComponentStatus())
	}
	if status.IsBroken() {
		t.Fatal("a dangling sandbox must not also classify as broken")
	}
}

func TestRemoveCleansLiveSandbox(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan.Session)

	outcome, err := e.Remove("feature", ForceRemovalOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Removed {
		t.Fatalf("expected removal, got blockers %v", outcome.Blockers)
	}

	status, err := e.GetStatus("feature")
	if err != nil {
		t.Fatal(err)
	}
	if !status.IsNone() {
		t.Fatalf("expected no trace of sandbox, got %+v", status)
	}
}

func TestRemoveBlocksOnUncommittedChangesWithoutOverride(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan.Session)

	if err := os.WriteFile(filepath.Join(e.WorktreePath("feature"), "dirty.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	outcome, err := e.Remove("feature", RemovalOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Removed {
		t.Fatal("expected removal to be blocked")
	}
	found := false
	for _, b := range outcome.Blockers {
		if b == BlockerUncommittedChanges {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected BlockerUncommittedChanges, got %v", outcome.Blockers)
	}
}

func TestCleanAllRemovesCleanWorktreesAndDanglingDirs(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan1, err := e.Prepare("clean", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan1.Session)

	plan2, err := e.Prepare("dirty", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.WorktreePath("dirty"), "scratch.txt"), []byte("wip"), 0o644); err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan2.Session)

	plan3, err := e.Prepare("dangling", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	releaseSession(t, plan3.Session)
	if err := os.RemoveAll(e.WorktreePath("dangling")); err != nil {
		t.Fatal(err)
	}

	batch, err := e.CleanAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Failures) != 0 {
		t.Fatalf("expected no failures, got %v", batch.Failures)
	}

	// "clean" had no uncommitted changes and is fully merged (nothing
	// committed in the sandbox), so its worktree and branch are both
	// reclaimed.
	statusClean, err := e.GetStatus("clean")
	if err != nil {
		t.Fatal(err)
	}
	if !statusClean.IsNone() {
		t.Fatalf("expected clean sandbox fully removed, got %s", statusClean.ComponentStatus())
	}

	// "dirty" has uncommitted changes, so its worktree survives untouched.
	statusDirty, err := e.GetStatus("dirty")
	if err != nil {
		t.Fatal(err)
	}
	if !statusDirty.IsLive() {
		t.Fatalf("expected dirty sandbox to survive CleanAll, got %s", statusDirty.ComponentStatus())
	}

	// "dangling" has a registered worktree with no directory; the dangling
	// worktree registration and the branch (fully merged) are both reclaimed.
	statusDangling, err := e.GetStatus("dangling")
	if err != nil {
		t.Fatal(err)
	}
	if !statusDangling.IsNone() {
		t.Fatalf("expected dangling sandbox fully removed, got %s", statusDangling.ComponentStatus())
	}
}

func TestPlanDiffResolvesBaseCommit(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	defer releaseSession(t, plan.Session)

	diffPlan, err := e.PlanDiff("feature", "")
	if err != nil {
		t.Fatal(err)
	}
	if diffPlan.BaseCommit == "" {
		t.Fatal("expected resolved base commit")
	}
	if diffPlan.UsedFallback {
		t.Fatal("expected direct resolution, not fallback, right after creation")
	}
}

func TestPlanDiffHonorsBaseOverride(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	defer releaseSession(t, plan.Session)

	diffPlan, err := e.PlanDiff("feature", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if diffPlan.UsedFallback {
		t.Fatal("override resolution must never fall back")
	}

	if _, err := e.PlanDiff("feature", "no-such-rev"); err == nil {
		t.Fatal("expected BaseError for unresolvable override")
	} else if _, ok := err.(*BaseError); !ok {
		t.Fatalf("expected BaseError, got %T: %v", err, err)
	}
}

func TestPlanDiffFallsBackToMergeBaseWhenBaseCommitGone(t *testing.T) {
	repoDir := initRepo(t)
	e := newTestEngine(t, repoDir)

	plan, err := e.Prepare("feature", PrepareOptions{UncommittedPolicy: UncommittedAbort})
	if err != nil {
		t.Fatal(err)
	}
	defer releaseSession(t, plan.Session)

	// Rewrite the recorded base to a commit that does not exist, the same
	// end state a history rewrite plus gc leaves behind.
	store := metadata.NewStore(e.StateDir)
	rec, err := store.Read("feature")
	if err != nil || rec == nil {
		t.Fatalf("read metadata: %v %v", rec, err)
	}
	rec.BaseCommit = "0123456789012345678901234567890123456789"
	if err := store.Write("feature", rec); err != nil {
		t.Fatal(err)
	}

	diffPlan, err := e.PlanDiff("feature", "")
	if err != nil {
		t.Fatal(err)
	}
	if !diffPlan.UsedFallback {
		t.Fatal("expected merge-base fallback")
	}
	if diffPlan.FallbackTarget != "main" {
		t.Fatalf("expected fallback against recorded base ref %q, got %q", "main", diffPlan.FallbackTarget)
	}
}

package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func mustRunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runGit(dir, args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return out
}

func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRunGit(t, dir, "init", "-b", "main")
	mustRunGit(t, dir, "config", "user.email", "test@example.com")
	mustRunGit(t, dir, "config", "user.name", "Test User")
	return dir
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHasUncommittedChangesCleanRepo(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "test.txt", "initial content")
	mustRunGit(t, dir, "add", "test.txt")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")

	dirty, err := gw.HasUncommittedChanges(dir)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Fatal("expected clean repo")
	}
}

func TestHasUncommittedChangesUntrackedFile(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "test.txt", "initial content")
	mustRunGit(t, dir, "add", "test.txt")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")
	writeFile(t, dir, "untracked.txt", "new file")

	dirty, err := gw.HasUncommittedChanges(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Fatal("expected untracked file to count as uncommitted")
	}
}

func TestCreateAndRemoveWorktree(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "README.md", "# Test Repo")
	mustRunGit(t, dir, "add", "README.md")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")

	worktreePath := filepath.Join(t.TempDir(), "test-worktree")
	if err := gw.CreateWorktree(dir, worktreePath, "test-branch"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(worktreePath, "README.md")); err != nil {
		t.Fatal(err)
	}

	exists, err := gw.BranchExists(dir, "test-branch")
	if err != nil || !exists {
		t.Fatalf("expected branch to exist, err=%v exists=%v", err, exists)
	}

	if err := gw.RemoveWorktree(dir, worktreePath, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(worktreePath); !os.IsNotExist(err) {
		t.Fatal("expected worktree directory to be removed")
	}
}

func TestCreateWorktreeDuplicateBranch(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "README.md", "# Test Repo")
	mustRunGit(t, dir, "add", "README.md")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")

	base := t.TempDir()
	wt1 := filepath.Join(base, "wt1")
	if err := gw.CreateWorktree(dir, wt1, "dup-branch"); err != nil {
		t.Fatal(err)
	}

	wt2 := filepath.Join(base, "wt2")
	if err := gw.CreateWorktree(dir, wt2, "dup-branch"); err == nil {
		t.Fatal("expected error for duplicate branch")
	}
}

func TestRemoveWorktreeAlreadyRemovedIsSuccess(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "README.md", "# Test Repo")
	mustRunGit(t, dir, "add", "README.md")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")

	nonExistent := filepath.Join(t.TempDir(), "never-existed")
	if err := gw.RemoveWorktree(dir, nonExistent, false); err != nil {
		t.Fatalf("expected no error removing unregistered worktree, got %v", err)
	}
}

func TestDeleteBranchUnmergedRequiresForce(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "README.md", "# Test Repo")
	mustRunGit(t, dir, "add", "README.md")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")
	mustRunGit(t, dir, "checkout", "-b", "feature-branch")
	writeFile(t, dir, "feature.txt", "feature content")
	mustRunGit(t, dir, "add", "feature.txt")
	mustRunGit(t, dir, "commit", "-m", "Feature commit")
	mustRunGit(t, dir, "checkout", "main")

	if err := gw.DeleteBranch(dir, "feature-branch", false); err == nil {
		t.Fatal("expected unmerged delete without force to fail")
	}
	if err := gw.DeleteBranch(dir, "feature-branch", true); err != nil {
		t.Fatal(err)
	}
}

func TestFindRoot(t *testing.T) {
	gw := NewGitGateway()
	root := t.TempDir()
	if _, err := exec.Command("git", "-C", root, "init").Output(); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(root, "src", "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := gw.FindRoot(nested)
	if !ok {
		t.Fatal("expected to find root")
	}
	gotReal, _ := filepath.EvalSymlinks(got)
	wantReal, _ := filepath.EvalSymlinks(root)
	if gotReal != wantReal {
		t.Fatalf("got %q want %q", got, root)
	}

	if _, ok := gw.FindRoot(filepath.Dir(root)); ok {
		t.Fatal("expected no root above a non-git ancestor that contains no .git")
	}
}

func TestBranchMergeStatusDetectsDivergedAndClean(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "base.txt", "base")
	mustRunGit(t, dir, "add", "base.txt")
	mustRunGit(t, dir, "commit", "-m", "Base commit")

	mustRunGit(t, dir, "checkout", "-b", "feature")
	writeFile(t, dir, "feature.txt", "work in progress")
	mustRunGit(t, dir, "add", "feature.txt")
	mustRunGit(t, dir, "commit", "-m", "Feature work")

	status, err := gw.MergeStatusOf(dir, "feature")
	if err != nil {
		t.Fatal(err)
	}
	if status != MergeStatusDiverged {
		t.Fatalf("expected Diverged, got %v", status)
	}

	mustRunGit(t, dir, "checkout", "main")
	mustRunGit(t, dir, "merge", "feature")

	status, err = gw.MergeStatusOf(dir, "feature")
	if err != nil {
		t.Fatal(err)
	}
	if status != MergeStatusClean {
		t.Fatalf("expected Clean, got %v", status)
	}
}

func TestUnmergedCommitsReportsShortHashAndStats(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "base.txt", "base")
	mustRunGit(t, dir, "add", "base.txt")
	mustRunGit(t, dir, "commit", "-m", "Base commit")

	mustRunGit(t, dir, "checkout", "-b", "feature")
	writeFile(t, dir, "feature.txt", "one\ntwo\n")
	mustRunGit(t, dir, "add", "feature.txt")
	mustRunGit(t, dir, "commit", "-m", "Feature work")
	mustRunGit(t, dir, "checkout", "main")

	commits, err := gw.UnmergedCommits(dir, "feature")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 unmerged commit, got %v", commits)
	}
	c := commits[0]
	if c.Subject != "Feature work" {
		t.Fatalf("Subject = %q", c.Subject)
	}
	if len(c.Hash) == 0 || len(c.Hash) >= 40 {
		t.Fatalf("expected a short hash, got %q", c.Hash)
	}
	if c.Insertions != 2 || c.Deletions != 0 {
		t.Fatalf("stats = +%d -%d, want +2 -0", c.Insertions, c.Deletions)
	}
}

func TestBranchMergeStatusUnknownWithoutBaseline(t *testing.T) {
	gw := NewGitGateway()
	dir := t.TempDir()
	mustRunGit(t, dir, "init", "-b", "release")
	mustRunGit(t, dir, "config", "user.email", "test@example.com")
	mustRunGit(t, dir, "config", "user.name", "Test User")
	mustRunGit(t, dir, "commit", "--allow-empty", "-m", "Initial commit")

	status, err := gw.MergeStatusOf(dir, "release")
	if err != nil {
		t.Fatal(err)
	}
	if status != MergeStatusUnknown {
		t.Fatalf("expected Unknown, got %v", status)
	}
}

func TestResetHardAndClean(t *testing.T) {
	gw := NewGitGateway()
	dir := setupTestRepo(t)
	writeFile(t, dir, "test.txt", "initial content")
	mustRunGit(t, dir, "add", "test.txt")
	mustRunGit(t, dir, "commit", "-m", "Initial commit")

	writeFile(t, dir, "test.txt", "modified content")
	writeFile(t, dir, "untracked.txt", "untracked content")

	if err := gw.ResetHard(dir); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "test.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "initial content" {
		t.Fatalf("expected reset to restore content, got %q", content)
	}

	if err := gw.Clean(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "untracked.txt")); !os.IsNotExist(err) {
		t.Fatal("expected untracked file removed by clean")
	}
}

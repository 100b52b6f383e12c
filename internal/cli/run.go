package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
	"github.com/sbxtool/sbx/internal/ui"
	"github.com/sbxtool/sbx/internal/vcs"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		keep     bool
		commit   string
		sh       bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "run NAME [-- COMMAND [ARG...]]",
		Short: "Run a command in an isolated sandbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			argv := args[1:]

			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}

			if app.currentSandbox == name {
				return &sandbox.SandboxError{Name: name, Message: "cannot run this sandbox from within itself; exit it first"}
			}

			return runRun(app, runRequest{
				name:     name,
				argv:     argv,
				keep:     keep,
				commit:   commit,
				forceSh:  sh,
				excludes: excludes,
			})
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the sandbox after the command exits")
	cmd.Flags().StringVar(&commit, "commit", "", "commit all changes with this message after the command exits")
	cmd.Flags().BoolVar(&sh, "sh", false, "force shell evaluation via $SHELL -c")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "glob of repository entries to exclude from sandbox materialization (repeatable)")

	return cmd
}

type runRequest struct {
	name     string
	argv     []string
	keep     bool
	commit   string
	forceSh  bool
	excludes []string
}

func runRun(app *appContext, req runRequest) error {
	out := app.output
	engine := app.engine

	existing, err := engine.GetStatus(req.name)
	if err != nil {
		return err
	}
	sandboxPath := engine.WorktreePath(req.name)

	policy := sandbox.UncommittedInclude
	if existing.IsNone() {
		dirty, err := engine.RepoHasUncommittedChanges()
		if err != nil {
			return err
		}
		if dirty {
			out.Warning("You have uncommitted changes.")
			if !app.noPrompt {
				idx, err := out.Select("Uncommitted changes in working tree", []string{
					"Abort",
					"Include uncommitted changes",
					"Start clean (HEAD only)",
				})
				if err != nil {
					return &sandbox.UserAbortedError{}
				}
				switch idx {
				case 0:
					return &sandbox.UserAbortedError{}
				case 2:
					policy = sandbox.UncommittedClean
				}
			}
		}
	} else if !existing.IsLive() {
		return &sandbox.SandboxError{
			Name:    req.name,
			Message: fmt.Sprintf("exists but is not live - remove it first (%s)", existing.ComponentStatus()),
		}
	} else {
		out.Info("Using existing sandbox %s at %s", req.name, sandboxPath)
	}

	if existing.IsNone() {
		out.Info("Creating sandbox %s with branch %s at %s", req.name, sandbox.BranchName(req.name), sandboxPath)
	}

	plan, err := engine.Prepare(req.name, sandbox.PrepareOptions{
		UncommittedPolicy: policy,
		Excludes:          req.excludes,
	})
	if err != nil {
		return err
	}

	if plan.Cleaned {
		out.Info("Resetting sandbox to clean state...")
		out.Success("Sandbox is now in a clean state")
	}

	runErr := runInSandbox(plan.Session.Path, req.argv, req.forceSh)

	outcome, relErr := plan.Session.Release()
	if relErr != nil {
		if runErr != nil {
			return runErr
		}
		return relErr
	}

	if !outcome.IsLast() {
		out.Info("Another sbx session is still attached; skipping cleanup.")
		return runErr
	}
	guard := outcome.Last
	defer guard.Release()

	if runErr != nil {
		return runErr
	}

	if !req.keep && req.commit == "" {
		removalPlan, err := engine.PlanRemoval(req.name)
		if err == nil && len(removalPlan.Blockers) == 0 {
			removed, err := removeWithSpinner(out, engine, req.name, sandbox.ForceRemovalOptions())
			if err != nil {
				return err
			}
			if removed {
				return nil
			}
		}
	}

	if req.commit != "" {
		out.Info("Staging and committing changes...")
		if err := engine.CommitAll(req.name, req.commit); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Committed with message: %s", req.commit))
		return renderCleanupForName(out, engine, req.name)
	}

	if req.keep {
		return nil
	}

	if app.noPrompt {
		out.Success("Keeping sandbox. You can return to it at: %s", plan.Session.Path)
		return nil
	}

	for {
		action, err := promptPostRunAction(out, engine, req.name)
		if err != nil {
			return err
		}
		switch action {
		case postRunCommit:
			out.Info("Staging and committing changes...")
			if err := engine.CommitInteractive(req.name); err != nil {
				return err
			}
			return renderCleanupForName(out, engine, req.name)
		case postRunShell:
			out.Info("Opening shell in sandbox...")
			if err := openShellIn(plan.Session.Path); err != nil {
				out.Warning("Shell exited with non-zero status")
			}
		case postRunKeep:
			out.Success("Keeping sandbox. You can return to it at: %s", plan.Session.Path)
			return nil
		case postRunDiscard:
			ok, err := promptConfirm(out, "Discard all changes and delete branch?", false)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			outcome, err := engine.Remove(req.name, sandbox.ForceRemovalOptions())
			if err != nil {
				return err
			}
			if !outcome.Removed {
				return &sandbox.SandboxError{Name: req.name, Message: "remove blocked"}
			}
			return nil
		case postRunBranchOnly:
			out.Info("Keeping branch but removing worktree...")
			if err := engine.RemoveWorktreeKeepBranch(req.name); err != nil {
				return err
			}
			out.Success("Worktree removed, branch %s kept", sandbox.BranchName(req.name))
			return nil
		}
	}
}

// postRunAction is one of the five follow-up choices offered after a
// sandboxed command exits.
type postRunAction int

const (
	postRunCommit postRunAction = iota
	postRunShell
	postRunKeep
	postRunDiscard
	postRunBranchOnly
)

// promptPostRunAction presents the option set appropriate to the
// sandbox's current state and returns the chosen action. Cancellation
// falls back to Shell so the user keeps a way out.
func promptPostRunAction(out ui.Output, engine *sandbox.Engine, name string) (postRunAction, error) {
	status, err := engine.GetStatus(name)
	if err != nil {
		return 0, err
	}

	hasUncommitted := status.HasUncommittedChanges
	hasUnmerged := status.MergeStatus == vcs.MergeStatusDiverged

	var prompt string
	switch {
	case hasUncommitted && hasUnmerged:
		prompt = "Uncommitted changes and unmerged commits. What next?"
	case hasUncommitted:
		prompt = "Uncommitted changes. What next?"
	case hasUnmerged:
		prompt = "Unmerged commits. What next?"
	default:
		prompt = "What next?"
	}

	var options []string
	var actions []postRunAction
	if hasUncommitted {
		options = append(options, "Commit all changes")
		actions = append(actions, postRunCommit)
	}
	options = append(options, "Drop to shell")
	actions = append(actions, postRunShell)
	options = append(options, "Keep sandbox")
	actions = append(actions, postRunKeep)
	options = append(options, "Discard everything")
	actions = append(actions, postRunDiscard)
	if hasUnmerged {
		options = append(options, "Keep branch only")
		actions = append(actions, postRunBranchOnly)
	}

	idx, err := out.Select(prompt, options)
	if err != nil {
		return postRunShell, nil
	}
	return actions[idx], nil
}

// removeWithSpinner wraps a removal attempt with a spinner, returning
// whether it actually removed the sandbox.
func removeWithSpinner(out ui.Output, engine *sandbox.Engine, name string, opts sandbox.RemovalOptions) (bool, error) {
	var outcome sandbox.RemovalOutcome
	err := ui.RunWithSpinner("Removing sandbox...", func() error {
		var err error
		outcome, err = engine.Remove(name, opts)
		return err
	})
	if err != nil {
		return false, err
	}
	return outcome.Removed, nil
}

// renderCleanupForName runs the conservative per-sandbox cleanup rules
// after a commit and reports the outcome.
func renderCleanupForName(out ui.Output, engine *sandbox.Engine, name string) error {
	report, err := engine.Clean(name)
	if err != nil {
		return err
	}
	renderCleanupReport(out, report)
	return nil
}

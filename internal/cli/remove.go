package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
)

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a named sandbox",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}

			if app.currentSandbox == name {
				return &sandbox.SandboxError{Name: name, Message: "cannot remove this sandbox from within itself; exit it first"}
			}

			return runRemove(app, name, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "force removal even if there are uncommitted changes")

	return cmd
}

func runRemove(app *appContext, name string, force bool) error {
	plan, err := app.engine.PlanRemoval(name)
	if err != nil {
		return err
	}

	if plan.Status.IsNone() {
		app.output.Info("Sandbox %s does not exist; nothing to remove.", name)
		return nil
	}

	opts := sandbox.RemovalOptions{}
	if force {
		opts = sandbox.ForceRemovalOptions()
	} else {
		opts, err = removalOptionsFromConfirmations(app, name, plan)
		if err != nil {
			return err
		}
	}

	removed, err := removeWithSpinner(app.output, app.engine, name, opts)
	if err != nil {
		return err
	}
	if !removed {
		return &sandbox.SandboxError{Name: name, Message: "removal blocked"}
	}

	app.output.Success("Sandbox %s removed", name)
	return nil
}

// removalOptionsFromConfirmations turns each blocker into a confirmation
// prompt, so removal only overrides what the user explicitly waved through.
// With prompts disabled, any blocker is fatal.
func removalOptionsFromConfirmations(app *appContext, name string, plan *sandbox.RemovalPlan) (sandbox.RemovalOptions, error) {
	var opts sandbox.RemovalOptions
	out := app.output

	for _, blocker := range plan.Blockers {
		var message, prompt string
		switch blocker {
		case sandbox.BlockerUncommittedChanges:
			message = "has uncommitted changes (use --force to remove)"
			prompt = "Uncommitted changes will be lost. Continue?"
		case sandbox.BlockerUnmergedCommits:
			message = "branch has unmerged commits (use --force to remove)"
			prompt = "Unmerged commits will be lost. Continue?"
		case sandbox.BlockerMergeStatusUnknown:
			message = "branch merge status is unknown (use --force to remove)"
			prompt = "Merge status unknown (commits may be lost). Continue?"
		default:
			return opts, &sandbox.OperationError{Message: fmt.Sprintf("unknown removal blocker %v", blocker)}
		}

		if app.noPrompt {
			return opts, &sandbox.SandboxError{Name: name, Message: message}
		}
		ok, err := promptConfirm(out, prompt, false)
		if err != nil {
			return opts, err
		}
		if !ok {
			return opts, &sandbox.UserAbortedError{}
		}

		switch blocker {
		case sandbox.BlockerUncommittedChanges:
			opts.AllowUncommittedChanges = true
		case sandbox.BlockerUnmergedCommits:
			opts.AllowUnmergedCommits = true
		case sandbox.BlockerMergeStatusUnknown:
			opts.AllowUnknownMergeStatus = true
		}
	}

	return opts, nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
)

func newDiffCmd(flags *globalFlags) *cobra.Command {
	var (
		base    string
		pager   string
		noPager bool
	)

	cmd := &cobra.Command{
		Use:   "diff [NAME]",
		Short: "Diff a sandbox against its recorded base commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}

			name := app.currentSandbox
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				return &sandbox.OperationError{Message: "no sandbox name provided and not inside a sandbox"}
			}

			return runDiff(app, name, base, diffPager{pager: pager, noPager: noPager})
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "override the base commit used for diffing")
	cmd.Flags().StringVar(&pager, "pager", "", "override the pager command for diff output")
	cmd.Flags().BoolVar(&noPager, "no-pager", false, "disable paging for diff output")
	cmd.MarkFlagsMutuallyExclusive("pager", "no-pager")

	return cmd
}

func runDiff(app *appContext, name, baseOverride string, pager diffPager) error {
	plan, err := app.engine.PlanDiff(name, baseOverride)
	if err != nil {
		return err
	}

	if plan.UsedFallback {
		if plan.FallbackTarget != "" {
			app.output.Warning("Recorded base commit missing; using merge-base with %s", plan.FallbackTarget)
		} else {
			app.output.Warning("Recorded base commit missing; using merge-base fallback")
		}
	}

	if err := runGitDiff(plan.SandboxPath, pager, []string{"diff", plan.BaseCommit}); err != nil {
		return err
	}

	// `git diff <base>` never shows untracked content; diff each untracked
	// file against /dev/null so new files appear too.
	for _, path := range plan.UntrackedFiles {
		args := []string{"diff", "--no-index", "--", "/dev/null", path}
		if err := runGitDiff(plan.SandboxPath, pager, args); err != nil {
			return err
		}
	}

	return nil
}

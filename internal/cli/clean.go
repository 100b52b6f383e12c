package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
	"github.com/sbxtool/sbx/internal/ui"
)

func newCleanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [NAME]",
		Short: "Reclaim clean worktrees and fully merged branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}

			if app.currentSandbox != "" {
				if name == "" {
					return &sandbox.SandboxError{
						Name:    app.currentSandbox,
						Message: "cannot clean all sandboxes from within a sandbox; exit it first or name one",
					}
				}
				if name == app.currentSandbox {
					return &sandbox.SandboxError{Name: name, Message: "cannot clean this sandbox from within itself; exit it first"}
				}
			}

			return runClean(app, name)
		},
	}
}

func runClean(app *appContext, name string) error {
	out := app.output

	if name == "" {
		batch, err := app.engine.CleanAll()
		if err != nil {
			return err
		}
		if len(batch.Reports)+len(batch.Failures) == 0 {
			out.Info("No sandboxes to clean")
			return nil
		}
		ui.RenderCleanupBatch(out, batch)
		return nil
	}

	status, err := app.engine.GetStatus(name)
	if err != nil {
		return err
	}
	if status.IsNone() {
		return &sandbox.SandboxError{Name: name, Message: "does not exist"}
	}

	if status.HasWorktree && status.HasUncommittedChanges && !app.noPrompt {
		ok, err := promptConfirm(out, "Sandbox has uncommitted changes; its worktree will be kept. Continue?", false)
		if err != nil {
			return err
		}
		if !ok {
			return &sandbox.UserAbortedError{}
		}
	}

	report, err := app.engine.Clean(name)
	if err != nil {
		return err
	}
	renderCleanupReport(out, report)
	return nil
}

func renderCleanupReport(out ui.Output, report sandbox.CleanupReport) {
	ui.RenderCleanupReport(out, report.Status.Name, report)
}

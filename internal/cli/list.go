package cli

import (
	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
	"github.com/sbxtool/sbx/internal/ui"
	"github.com/sbxtool/sbx/internal/vcs"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show existing sandboxes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(*flags)
			if err != nil {
				return err
			}
			return runList(app)
		},
	}
}

func runList(app *appContext) error {
	entries, err := app.engine.ListAll()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		app.output.Info("No sandboxes found.")
		return nil
	}

	for _, entry := range entries {
		renderListEntry(app.output, entry)
	}
	return nil
}

func renderListEntry(out ui.Output, entry sandbox.ListEntry) {
	status := entry.Status

	out.Section(status.Name)

	switch {
	case status.HasWorktree && status.WorktreeDetached:
		out.Status("branch", "(detached HEAD)")
	case status.HasWorktree && status.WorktreeBranch != "":
		out.Status("branch", status.WorktreeBranch)
	case status.HasBranch:
		out.Status("branch", sandbox.BranchName(status.Name))
	}

	out.Status("state", ui.TitleCase(stateLabel(status)))

	if entry.ActiveConnections > 0 {
		label := "active connections"
		if entry.ActiveConnections == 1 {
			label = "active connection"
		}
		out.Info("%d %s", entry.ActiveConnections, label)
	}

	if status.HasBranch && status.MergeStatus == vcs.MergeStatusDiverged {
		for _, commit := range status.UnmergedCommits {
			out.Info("%s %s (+%d -%d)", commit.Hash, commit.Subject, commit.Insertions, commit.Deletions)
		}
	}

	if status.HasWorktree && status.HasUncommittedChanges {
		if stats := status.DiffStats; stats != nil {
			out.Info("uncommitted changes: +%d -%d", stats.Insertions, stats.Deletions)
		} else {
			out.Warning("uncommitted changes")
		}
	}

	if status.IsDangling {
		out.Error("dangling worktree")
	}
}

func stateLabel(status sandbox.Status) string {
	switch {
	case status.IsLive():
		return "live"
	case status.IsDangling:
		return "dangling"
	default:
		return "broken"
	}
}

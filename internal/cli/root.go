package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbxtool/sbx/internal/sandbox"
	"github.com/sbxtool/sbx/internal/ui"
)

// Root builds sbx's root cobra command with every subcommand attached.
func Root() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *globalFlags) {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "sbx",
		Short:         "Ephemeral git-worktree sandboxes",
		Long:          "sbx runs commands inside disposable, branch-backed git worktrees so experiments never touch your primary working tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.dir, "dir", "", "override the sbx state directory (default ~/.sbx)")
	root.PersistentFlags().StringVar(&flags.repoDir, "repo-dir", "", "override the repository directory (defaults to the current git project)")
	root.PersistentFlags().BoolVar(&flags.color, "color", false, "force colored output")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	root.MarkFlagsMutuallyExclusive("color", "no-color")
	root.PersistentFlags().BoolVar(&flags.quiet, "quiet", false, "suppress all non-error output")
	root.PersistentFlags().BoolVar(&flags.noPrompt, "no-prompt", false, "never block on interactive prompts")

	root.AddCommand(
		newRunCmd(flags),
		newListCmd(flags),
		newDiffCmd(flags),
		newRemoveCmd(flags),
		newCleanCmd(flags),
		newDoctorCmd(flags),
	)

	return root, flags
}

// Execute runs the CLI and returns the process exit code, translating the
// error taxonomy per sandbox.ExitCode and resetting terminal color state
// that a styled line may have left active before a non-zero exit.
func Execute() int {
	root, flags := newRoot()

	err := root.Execute()
	if err == nil {
		return 0
	}

	if resolveColor(*flags) && ui.AutoColor(os.Stdout) {
		fmt.Print("\x1b[0m")
	}

	var cmdExit *sandbox.CommandExitError
	var aborted *sandbox.UserAbortedError
	switch {
	case errors.As(err, &cmdExit):
		// The child already wrote its own diagnostics.
	case errors.As(err, &aborted):
		// Quiet exit; cancellation is not an error worth narrating.
	default:
		fmt.Fprintf(os.Stderr, "sbx: %v\n", err)
	}

	return sandbox.ExitCode(err)
}

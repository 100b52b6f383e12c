// Command sbx manages ephemeral git-worktree sandboxes: disposable,
// branch-backed checkouts that arbitrary commands run inside without
// touching the primary working tree.
package main

import (
	"os"

	"github.com/sbxtool/sbx/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

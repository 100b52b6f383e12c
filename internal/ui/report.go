package ui

import (
	"fmt"

	"github.com/sbxtool/sbx/internal/sandbox"
)

// RenderCleanupReport prints what a single sandbox cleanup actually did.
func RenderCleanupReport(out Output, name string, report sandbox.CleanupReport) {
	out.Section(fmt.Sprintf("Sandbox: %s", name))
	out.Status("worktree removed", yesNo(report.WorktreeRemoved))
	out.Status("branch removed", yesNo(report.BranchRemoved))
	out.Status("directory removed", yesNo(report.DirectoryRemoved))
}

// RenderCleanupBatch prints a summary of a multi-sandbox clean run.
func RenderCleanupBatch(out Output, batch sandbox.CleanupBatch) {
	out.Section("Clean summary")
	for _, report := range batch.Reports {
		RenderCleanupReport(out, report.Status.Name, report)
	}
	for _, failure := range batch.Failures {
		out.Error("%s: %v", failure.SandboxName, failure.Err)
	}
	out.Info("cleaned %d sandbox(es), %d failure(s)", len(batch.Reports), len(batch.Failures))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

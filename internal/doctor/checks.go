package doctor

import "fmt"

// BrokenSandboxesCheck flags any sandbox whose branch/worktree/directory
// triple is inconsistent (neither fully Live nor simply absent): both
// Broken and Dangling sandboxes.
type BrokenSandboxesCheck struct {
	broken []string
}

func NewBrokenSandboxesCheck() *BrokenSandboxesCheck { return &BrokenSandboxesCheck{} }

func (c *BrokenSandboxesCheck) Name() string { return "broken-sandboxes" }
func (c *BrokenSandboxesCheck) CanFix() bool { return false }

func (c *BrokenSandboxesCheck) Run(ctx *CheckContext) Result {
	c.broken = nil
	names, err := ctx.sandboxNames()
	if err != nil {
		return Result{Status: StatusFail, Message: err.Error()}
	}

	for _, name := range names {
		status, err := ctx.Engine.GetStatus(name)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		if status.IsBroken() || status.IsDangling {
			c.broken = append(c.broken, name)
		}
	}

	if len(c.broken) == 0 {
		return Result{Status: StatusOK, Message: "no broken sandboxes"}
	}
	return Result{
		Status:  StatusWarning,
		Message: fmt.Sprintf("%d sandbox(es) in a broken or dangling state: %v", len(c.broken), c.broken),
		FixHint: "inspect with `sbx list` and remove broken sandboxes manually; broken state is not auto-repaired",
	}
}

func (c *BrokenSandboxesCheck) Fix(ctx *CheckContext) error {
	return fmt.Errorf("broken-sandboxes cannot be auto-fixed: inspect and remove manually")
}

// StaleLeasesCheck reaps session lease files left behind by processes that
// no longer exist.
type StaleLeasesCheck struct {
	staleBySandbox map[string]int
}

func NewStaleLeasesCheck() *StaleLeasesCheck {
	return &StaleLeasesCheck{staleBySandbox: map[string]int{}}
}

func (c *StaleLeasesCheck) Name() string { return "stale-leases" }
func (c *StaleLeasesCheck) CanFix() bool { return true }

func (c *StaleLeasesCheck) Run(ctx *CheckContext) Result {
	names, err := ctx.sandboxNames()
	if err != nil {
		return Result{Status: StatusFail, Message: err.Error()}
	}

	// Run reaps stale leases as it counts them: reaping is the only
	// primitive the session package exposes for finding them, so
	// reporting and fixing share the same call here. Run is still safe
	// to call repeatedly; a second pass finds nothing left to reap.
	total := 0
	c.staleBySandbox = map[string]int{}
	for _, name := range names {
		removed, err := ctx.Engine.ReapLeases(name)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		if removed > 0 {
			c.staleBySandbox[name] = removed
			total += removed
		}
	}

	if total == 0 {
		return Result{Status: StatusOK, Message: "no stale leases"}
	}
	return Result{
		Status:  StatusWarning,
		Message: fmt.Sprintf("reaped %d stale lease(s) across %d sandbox(es)", total, len(c.staleBySandbox)),
	}
}

func (c *StaleLeasesCheck) Fix(ctx *CheckContext) error {
	// Reaping already happens as a side effect of Run; Fix simply
	// reruns it so `sbx doctor --fix` is a safe no-op on an already
	// clean state.
	_ = c.Run(ctx)
	return nil
}

// OrphanedMetadataCheck flags metadata records for sandboxes with no
// surviving branch, worktree, or directory.
type OrphanedMetadataCheck struct {
	orphaned []string
}

func NewOrphanedMetadataCheck() *OrphanedMetadataCheck { return &OrphanedMetadataCheck{} }

func (c *OrphanedMetadataCheck) Name() string { return "orphaned-metadata" }
func (c *OrphanedMetadataCheck) CanFix() bool { return true }

func (c *OrphanedMetadataCheck) Run(ctx *CheckContext) Result {
	c.orphaned = nil
	names, err := ctx.sandboxNames()
	if err != nil {
		return Result{Status: StatusFail, Message: err.Error()}
	}

	for _, name := range names {
		status, err := ctx.Engine.GetStatus(name)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		if !status.IsNone() {
			continue
		}
		hasMeta, err := ctx.Engine.HasMetadata(name)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		if hasMeta {
			c.orphaned = append(c.orphaned, name)
		}
	}

	if len(c.orphaned) == 0 {
		return Result{Status: StatusOK, Message: "no orphaned metadata"}
	}
	return Result{
		Status:  StatusWarning,
		Message: fmt.Sprintf("%d orphaned metadata record(s): %v", len(c.orphaned), c.orphaned),
		FixHint: "run with --fix to remove metadata for sandboxes with no branch or worktree left",
	}
}

func (c *OrphanedMetadataCheck) Fix(ctx *CheckContext) error {
	if len(c.orphaned) == 0 {
		if res := c.Run(ctx); res.Status == StatusOK {
			return nil
		}
	}
	for _, name := range c.orphaned {
		if err := ctx.Engine.RemoveMetadata(name); err != nil {
			return fmt.Errorf("remove metadata for %s: %w", name, err)
		}
	}
	c.orphaned = nil
	return nil
}

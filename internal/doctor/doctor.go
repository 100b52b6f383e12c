// Package doctor diagnoses inconsistencies in sbx's persisted sandbox
// state: sandboxes stuck in a broken or dangling state, stale session
// leases left behind by a crashed process, and metadata orphaned once a
// sandbox's branch and worktree are both gone.
//
// The Check/CheckContext/Result shape mirrors a diagnostics pattern used
// elsewhere in this codebase for an unrelated domain; only the checks
// themselves are new.
package doctor

import "github.com/sbxtool/sbx/internal/sandbox"

// Status is the outcome of running a single Check.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Result is what a Check reports after Run.
type Result struct {
	Status  Status
	Message string
	// FixHint suggests how to resolve a non-OK result (via --fix or by
	// hand); it is empty when a check has no hint to give.
	FixHint string
}

// CheckContext carries the shared state every Check needs.
type CheckContext struct {
	Engine *sandbox.Engine
	// Name restricts a check to one sandbox; empty means every sandbox.
	Name string
}

// sandboxNames returns the sandbox names a check should examine: just
// ctx.Name when set, otherwise every sandbox the engine knows about.
func (ctx *CheckContext) sandboxNames() ([]string, error) {
	if ctx.Name != "" {
		return []string{ctx.Name}, nil
	}
	return ctx.Engine.AllSandboxNames()
}

// Check is one diagnostic against the sandbox lifecycle state.
type Check interface {
	Name() string
	CanFix() bool
	Run(ctx *CheckContext) Result
	Fix(ctx *CheckContext) error
}

// AllChecks returns every registered Check in a stable order.
func AllChecks() []Check {
	return []Check{
		NewBrokenSandboxesCheck(),
		NewStaleLeasesCheck(),
		NewOrphanedMetadataCheck(),
	}
}

// RunAll runs every check against ctx.
func RunAll(ctx *CheckContext) map[Check]Result {
	results := make(map[Check]Result, len(AllChecks()))
	for _, check := range AllChecks() {
		results[check] = check.Run(ctx)
	}
	return results
}

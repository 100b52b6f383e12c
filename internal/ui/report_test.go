package ui

import (
	"fmt"
	"testing"

	"github.com/sbxtool/sbx/internal/sandbox"
)

// recordingOutput is a minimal Output fake that records what was rendered,
// used instead of a mocking framework to keep assertions direct.
type recordingOutput struct {
	sections []string
	statuses [][2]string
	errors   []string
	infos    []string
}

func (r *recordingOutput) Section(title string) { r.sections = append(r.sections, title) }
func (r *recordingOutput) Info(format string, args ...any) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}
func (r *recordingOutput) Success(string, ...any) {}
func (r *recordingOutput) Warning(string, ...any) {}
func (r *recordingOutput) Error(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
func (r *recordingOutput) Status(label, value string) {
	r.statuses = append(r.statuses, [2]string{label, value})
}
func (r *recordingOutput) Confirm(_ string, defaultYes bool) (bool, error) { return defaultYes, nil }
func (r *recordingOutput) Select(string, []string) (int, error)            { return -1, nil }
func (r *recordingOutput) Finish() error                                   { return nil }

func TestRenderCleanupBatchSummarizesReportsAndFailures(t *testing.T) {
	rec := &recordingOutput{}
	batch := sandbox.CleanupBatch{
		Reports: []sandbox.CleanupReport{
			{
				Status:           sandbox.Status{Name: "feature"},
				WorktreeRemoved:  true,
				BranchRemoved:    true,
				DirectoryRemoved: false,
			},
		},
		Failures: []sandbox.CleanupFailure{
			{SandboxName: "broken", Err: errTest("disk full")},
		},
	}

	RenderCleanupBatch(rec, batch)

	if len(rec.sections) != 2 {
		t.Fatalf("expected a section for the batch and one per report, got %v", rec.sections)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "broken: disk full" {
		t.Fatalf("expected recorded failure line, got %v", rec.errors)
	}
	if len(rec.infos) != 1 {
		t.Fatalf("expected a closing summary line, got %v", rec.infos)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

// Package cli builds sbx's command-line surface: one file per subcommand
// (run, list, diff, remove/rm, clean, doctor), wired onto a cobra root
// command by Root. Every subcommand resolves a shared appContext first —
// the chosen ui.Output, the sandbox engine for the target repository, and
// whether the caller is already inside a sandbox — so the per-command
// logic only has to deal with its own flags.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbxtool/sbx/internal/sandbox"
	"github.com/sbxtool/sbx/internal/ui"
	"github.com/sbxtool/sbx/internal/vcs"
)

const defaultSbxDir = "~/.sbx"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	dir      string
	repoDir  string
	color    bool
	noColor  bool
	quiet    bool
	noPrompt bool
}

// appContext is the state every subcommand operates against, resolved once
// from globalFlags.
type appContext struct {
	output         ui.Output
	engine         *sandbox.Engine
	noPrompt       bool
	currentSandbox string // "" when the working directory is not inside a sandbox
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func resolveSbxDir(flags globalFlags) string {
	if flags.dir != "" {
		return expandTilde(flags.dir)
	}
	if env := os.Getenv("SBX_DIR"); env != "" {
		return expandTilde(env)
	}
	return expandTilde(defaultSbxDir)
}

func resolveColor(flags globalFlags) bool {
	switch {
	case flags.color:
		return true
	case flags.noColor:
		return false
	default:
		return ui.AutoColor(os.Stdout)
	}
}

func buildOutput(flags globalFlags) ui.Output {
	if flags.quiet {
		return ui.NewQuiet()
	}
	return ui.NewTerminal(os.Stdout, resolveColor(flags), flags.noPrompt)
}

// currentSandboxName reports the sandbox the working directory is inside,
// if any: cwd must sit at ⟨sbxRoot⟩/⟨project⟩/⟨sandbox⟩, with neither
// path component a reserved (dot-prefixed) subdirectory.
func currentSandboxName(sbxRoot string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	canonicalRoot, err := filepath.EvalSymlinks(sbxRoot)
	if err != nil {
		canonicalRoot = sbxRoot
	}
	canonicalCwd, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		canonicalCwd = cwd
	}

	rel, err := filepath.Rel(canonicalRoot, canonicalCwd)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	name := parts[1]
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

// newAppContext resolves the shared state for one CLI invocation.
func newAppContext(flags globalFlags) (*appContext, error) {
	sbxRoot := resolveSbxDir(flags)
	output := buildOutput(flags)

	var startDir string
	if flags.repoDir != "" {
		startDir = expandTilde(flags.repoDir)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &sandbox.ContextError{Message: fmt.Sprintf("get working directory: %v", err)}
		}
		startDir = wd
	}

	gw, repoRoot, err := vcs.Detect(startDir)
	if err != nil {
		return nil, &sandbox.ContextError{Message: err.Error()}
	}

	engine, err := sandbox.NewEngine(gw, sbxRoot, repoRoot)
	if err != nil {
		return nil, &sandbox.ContextError{Message: err.Error()}
	}

	return &appContext{
		output:         output,
		engine:         engine,
		noPrompt:       flags.noPrompt,
		currentSandbox: currentSandboxName(sbxRoot),
	}, nil
}

// promptConfirm asks prompt and wraps a prompt failure in a
// sandbox.OperationError. A declined or cancelled confirm returns false
// with no error; callers decide whether that aborts.
func promptConfirm(out ui.Output, prompt string, defaultYes bool) (bool, error) {
	ok, err := out.Confirm(prompt, defaultYes)
	if err != nil {
		return false, &sandbox.OperationError{Message: fmt.Sprintf("prompt failed: %v", err)}
	}
	return ok, nil
}

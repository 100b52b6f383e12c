package sandbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaterializeTree overlays srcRepo's working-tree content onto a freshly
// created worktree at dstDir. `git worktree add` only checks out committed
// content, so every top-level entry of srcRepo except ".git" and anything
// matching excludes is removed from dstDir (where the worktree checkout
// already placed the HEAD version) and cloned fresh from the source,
// preferring a copy-on-write reflink and carrying symlinks verbatim. This
// picks up both modified tracked files and untracked ones in one pass,
// exactly what `git worktree add` cannot do on its own.
//
// Each top-level entry is staged into a uuid-named temporary sibling of
// dstDir first and then renamed into place, so a crash mid-copy never
// leaves a half-written entry where the sandbox expects to find one.
func MaterializeTree(srcRepo, dstDir string, excludes []string) error {
	entries, err := os.ReadDir(srcRepo)
	if err != nil {
		return fmt.Errorf("read repository directory: %w", err)
	}

	stagingDir := filepath.Join(filepath.Dir(dstDir), ".sbx-stage-"+uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			continue
		}
		if isExcluded(name, excludes) {
			continue
		}

		srcPath := filepath.Join(srcRepo, name)
		dstPath := filepath.Join(dstDir, name)
		stagePath := filepath.Join(stagingDir, name)

		info, err := os.Lstat(srcPath)
		if err != nil {
			// Entry may have vanished between ReadDir and Lstat; skip it
			// rather than fail the whole materialization.
			continue
		}

		if err := cloneEntry(srcPath, stagePath, info); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}

		if err := removeDestEntry(dstPath); err != nil {
			return fmt.Errorf("remove existing %s: %w", name, err)
		}
		if err := os.Rename(stagePath, dstPath); err != nil {
			// Cross-device staging directories can't be renamed; fall
			// back to cloning directly into place.
			if err := cloneEntry(srcPath, dstPath, info); err != nil {
				return fmt.Errorf("place %s: %w", name, err)
			}
		}
	}

	return nil
}

func removeDestEntry(dst string) error {
	info, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
		return os.RemoveAll(dst)
	}
	return os.Remove(dst)
}

func isExcluded(name string, excludes []string) bool {
	for _, ex := range excludes {
		if ex == name {
			return true
		}
		if ok, _ := filepath.Match(ex, name); ok {
			return true
		}
	}
	return false
}

// cloneEntry copies src to dst, recursing into directories, preserving
// symlinks verbatim, and preferring a copy-on-write reflink for regular
// files when the platform supports it.
func cloneEntry(src, dst string, info os.FileInfo) error {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case info.IsDir():
		return cloneDir(src, dst)
	default:
		return cloneFile(src, dst, info)
	}
}

func cloneDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		childInfo, err := os.Lstat(srcPath)
		if err != nil {
			continue
		}
		if err := cloneEntry(srcPath, dstPath, childInfo); err != nil {
			return err
		}
	}
	return nil
}

// cloneFile copies src to dst, preferring a copy-on-write reflink for
// regular files when the platform supports it.
func cloneFile(src, dst string, info os.FileInfo) error {
	if err := reflinkFile(src, dst); err == nil {
		return nil
	}
	return plainCopyFile(src, dst, info.Mode())
}

func plainCopyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return nil
}

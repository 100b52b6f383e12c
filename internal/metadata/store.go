// Package metadata persists per-sandbox metadata as TOML files under a
// project's reserved metadata directory.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DirName is the reserved directory name for sandbox metadata within a
// project directory.
const DirName = ".sbx-meta"

// Record is the metadata persisted for a sandbox.
type Record struct {
	BaseCommit string `toml:"base_commit"`
	BaseRef    string `toml:"base_ref,omitempty"`
	CreatedAt  int64  `toml:"created_at"`
}

// Store reads and writes sandbox metadata files rooted at a project
// directory.
type Store struct {
	baseDir string
}

// NewStore creates a metadata store rooted at projectDir.
func NewStore(projectDir string) *Store {
	return &Store{baseDir: filepath.Join(projectDir, DirName)}
}

func (s *Store) path(sandbox string) string {
	return filepath.Join(s.baseDir, sandbox+".toml")
}

// Read loads metadata for sandbox, returning (nil, nil) when none exists.
func (s *Store) Read(sandbox string) (*Record, error) {
	path := s.path(sandbox)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var rec Record
	if _, err := toml.DecodeFile(path, &rec); err != nil {
		return nil, fmt.Errorf("parse metadata file %s: %w", path, err)
	}
	return &rec, nil
}

// Write persists metadata for sandbox, creating the metadata directory if
// needed.
func (s *Store) Write(sandbox string, rec *Record) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create metadata directory %s: %w", s.baseDir, err)
	}

	f, err := os.Create(s.path(sandbox))
	if err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("encode metadata for %s: %w", sandbox, err)
	}
	return nil
}

// Remove deletes metadata for sandbox if present, then removes the metadata
// directory itself when it is left empty.
func (s *Store) Remove(sandbox string) error {
	path := s.path(sandbox)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove metadata file %s: %w", path, err)
		}
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read metadata directory %s: %w", s.baseDir, err)
	}
	if len(entries) == 0 {
		if err := os.Remove(s.baseDir); err != nil {
			return fmt.Errorf("remove metadata directory %s: %w", s.baseDir, err)
		}
	}
	return nil
}

// List returns the sandbox names that currently have metadata recorded.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata directory %s: %w", s.baseDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const ext = ".toml"
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}

// Package scratch manages the per-job temporary working area.
package scratch

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// CleanupSet lists the paths a job must leave behind absent, whatever its outcome.
type CleanupSet struct {
	Paths []string
}

func NewCleanupSet(paths ...string) CleanupSet {
	return CleanupSet{Paths: append([]string(nil), paths...)}
}

type Manager struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Manager {
	return &Manager{fs: fs}
}

func NewOS() *Manager {
	return New(afero.NewOsFs())
}

func (m *Manager) Prepare(dir string) error {
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return nil
}

func (m *Manager) Size(path string) (int64, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (m *Manager) Exists(path string) (bool, error) {
	return afero.Exists(m.fs, path)
}

// RemoveIfExists deletes path recursively. A missing path is not an error.
func (m *Manager) RemoveIfExists(path string) error {
	if _, err := m.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &CleanupError{Path: path, Err: err}
	}

	if err := m.fs.RemoveAll(path); err != nil {
		return &CleanupError{Path: path, Err: err}
	}
	return nil
}

// Clean attempts every path in the set and returns all failures combined.
func (m *Manager) Clean(set CleanupSet) error {
	var errs error
	for _, path := range set.Paths {
		errs = multierr.Append(errs, m.RemoveIfExists(path))
	}
	return errs
}

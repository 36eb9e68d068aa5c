package files

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "capflow/internal/errors"
)

// Manager writes output files below a root directory. Every file is written to
// a temporary sibling first and renamed into place, so a failed run never
// leaves a truncated table or chart behind.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, logger: logger}
}

// Write creates name below the root through fill and returns its full path.
func (m *Manager) Write(name string, fill func(w io.Writer) error) (string, error) {
	fullPath := m.resolvePath(name)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewIOError("failed to create directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return "", apperrors.NewIOError("failed to create temporary file", err).WithContext("path", fullPath)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := fill(buf); err != nil {
		return "", err
	}
	if err := buf.Flush(); err != nil {
		return "", apperrors.NewIOError("failed to write file", err).WithContext("path", fullPath)
	}
	if err := tmp.Sync(); err != nil {
		return "", apperrors.NewIOError("failed to sync file", err).WithContext("path", fullPath)
	}
	if err := tmp.Close(); err != nil {
		return "", apperrors.NewIOError("failed to close file", err).WithContext("path", fullPath)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return "", apperrors.NewIOError(fmt.Sprintf("failed to move file into place: %s", fullPath), err).
			WithContext("path", fullPath)
	}
	committed = true

	m.logger.Debug("Wrote file",
		slog.String("path", fullPath))
	return fullPath, nil
}

// resolvePath resolves a path relative to the root directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.root, filepath.FromSlash(path))
}

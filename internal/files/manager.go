package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rxcli/internal/config"
)

// Manager provides file management operations for run outputs
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// Create creates or truncates a file, creating parent directories first.
func (m *Manager) Create(path string) (*os.File, error) {
	fullPath := m.resolvePath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	slog.Debug("Creating file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.Create(fullPath)
}

// WriteFile writes data to a file
func (m *Manager) WriteFile(path string, data []byte) error {
	fullPath := m.resolvePath(path)

	slog.Info("Writing file",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Int("size_bytes", len(data)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(fullPath, data, 0644)
}

// EnsureDirectory ensures a directory exists
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)

	if info, err := os.Stat(fullPath); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", fullPath)
		}
		return nil
	}

	return os.MkdirAll(fullPath, 0755)
}

// Resolve returns the absolute location a path refers to.
func (m *Manager) Resolve(path string) string {
	return m.resolvePath(path)
}

// resolvePath converts a relative path to an absolute path
func (m *Manager) resolvePath(path string) string {
	if m.paths == nil {
		return path
	}
	return m.paths.Resolve(path)
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths resolves relative output locations against a base directory.
type Paths struct {
	BaseDir string
	LogsDir string
}

// GetPaths returns paths rooted at the current working directory, which is
// where a batch run is expected to leave its report.
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewPaths(wd), nil
}

// NewPaths returns paths rooted at base.
func NewPaths(base string) *Paths {
	return &Paths{
		BaseDir: base,
		LogsDir: filepath.Join(base, DefaultLogsDir),
	}
}

// Resolve returns path unchanged when absolute, otherwise joined to BaseDir.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// GetLogPath returns the path of a log file inside LogsDir.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// EnsureDirectories creates the parent directory of every given file path.
func (p *Paths) EnsureDirectories(filePaths ...string) error {
	for _, fp := range filePaths {
		if fp == "" {
			continue
		}
		dir := filepath.Dir(p.Resolve(fp))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the absolute locations a run reads from and writes to
type Paths struct {
	InputDir  string
	OutputDir string
	LogsDir   string
}

// ResolvePaths makes the configured directories absolute. Relative paths
// are taken from the directory of the loaded configuration file, or the
// working directory when no file was loaded.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := ""
	if c.File != "" {
		base = filepath.Dir(c.File)
	}
	resolve := func(p string) (string, error) {
		if !filepath.IsAbs(p) && base != "" {
			p = filepath.Join(base, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		return abs, nil
	}

	var (
		paths Paths
		err   error
	)
	if paths.InputDir, err = resolve(c.Paths.InputDir); err != nil {
		return nil, err
	}
	if paths.OutputDir, err = resolve(c.Paths.OutputDir); err != nil {
		return nil, err
	}
	if paths.LogsDir, err = resolve(c.Paths.LogsDir); err != nil {
		return nil, err
	}
	return &paths, nil
}

// HRDir is where roster workbooks live
func (p *Paths) HRDir() string {
	return filepath.Join(p.InputDir, HRDirName)
}

// OrganizationsDir holds one folder per organization
func (p *Paths) OrganizationsDir() string {
	return filepath.Join(p.InputDir, OrganizationsDirName)
}

// RolesDir returns the roles folder of an organization
func (p *Paths) RolesDir(org string) string {
	return filepath.Join(p.OrganizationsDir(), org, RolesDirName)
}

// StatusDir returns the status folder of an organization
func (p *Paths) StatusDir(org string) string {
	return filepath.Join(p.OrganizationsDir(), org, StatusDirName)
}

// OutputPath returns the path of an output file
func (p *Paths) OutputPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.OutputDir, filename)
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.LogsDir, filename)
}

// EnsureOutputDirectories creates the directories a run writes to
func (p *Paths) EnsureOutputDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

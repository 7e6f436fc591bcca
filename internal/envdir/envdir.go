// Package envdir manages the per-environment work directories where
// captured command output is kept.
package envdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// CacheRoot returns the root directory for environment state.
func CacheRoot() string {
	// Check environment variable first
	if dir := os.Getenv("ENVMATRIX_DIR"); dir != "" {
		return dir
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "envmatrix")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "envmatrix")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "envmatrix")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "envmatrix", "cache")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "envmatrix", "cache")
}

// EnsureEnvDir creates (if needed) and returns the work directory for
// the named environment. Environment names are unique within a run, so
// the name itself is the directory key.
func EnsureEnvDir(name string) (string, error) {
	path := filepath.Join(CacheRoot(), "envs", name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create environment directory: %w", err)
	}
	return path, nil
}

// LogPath returns the capture log location inside an environment's
// work directory.
func LogPath(envDir, name string) string {
	return filepath.Join(envDir, name+".log")
}

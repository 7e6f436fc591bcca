package envdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheRoot_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENVMATRIX_DIR", dir)

	if got := CacheRoot(); got != dir {
		t.Errorf("CacheRoot() = %q, want %q", got, dir)
	}
}

func TestEnsureEnvDir(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ENVMATRIX_DIR", root)

	path, err := EnsureEnvDir("py36-arduino")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "envs", "py36-arduino")
	if path != want {
		t.Errorf("EnsureEnvDir = %q, want %q", path, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}

	// Second call is idempotent.
	again, err := EnsureEnvDir("py36-arduino")
	if err != nil || again != path {
		t.Errorf("second EnsureEnvDir = %q, %v", again, err)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("/tmp/x", "py39")
	if got != filepath.Join("/tmp/x", "py39.log") {
		t.Errorf("LogPath = %q", got)
	}
}

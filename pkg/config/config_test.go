package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `[matrix]
envlist = py{36,37,38,39,310}{,-arduino,-metrics}

[env]
extras =
    dev
    arduino: arduino
    metrics: metrics
commands = make test

[env:lint]
extras = arduino, dev, metrics
commands = make lint

[env:check-docs]
extras = arduino, dev, metrics
commands = make check-docs

[ci]
3.6 = py36
3.7 = py37
3.8 = py38
3.9 = py39
3.10 = py310
`

func TestParse_Sample(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Envlist != "py{36,37,38,39,310}{,-arduino,-metrics}" {
		t.Errorf("envlist = %q", cfg.Envlist)
	}

	wantdefaults := []ExtraRule{
		{Extra: "dev"},
		{Factor: "arduino", Extra: "arduino"},
		{Factor: "metrics", Extra: "metrics"},
	}
	if !rulesEqual(cfg.Defaults.Extras, wantdefaults) {
		t.Errorf("default extras = %v, want %v", cfg.Defaults.Extras, wantdefaults)
	}
	if len(cfg.Defaults.Commands) != 1 || cfg.Defaults.Commands[0] != "make test" {
		t.Errorf("default commands = %v", cfg.Defaults.Commands)
	}

	if len(cfg.Overrides) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(cfg.Overrides))
	}
	lint := cfg.Overrides[0]
	if lint.Name != "lint" {
		t.Errorf("first override = %q, want lint", lint.Name)
	}
	wantLint := []ExtraRule{{Extra: "arduino"}, {Extra: "dev"}, {Extra: "metrics"}}
	if !rulesEqual(lint.Extras, wantLint) {
		t.Errorf("lint extras = %v, want %v", lint.Extras, wantLint)
	}
	if len(lint.Commands) != 1 || lint.Commands[0] != "make lint" {
		t.Errorf("lint commands = %v", lint.Commands)
	}
	if cfg.Overrides[1].Name != "check-docs" {
		t.Errorf("second override = %q, want check-docs", cfg.Overrides[1].Name)
	}

	wantCI := []CIVersion{
		{Label: "3.6", Prefix: "py36"},
		{Label: "3.7", Prefix: "py37"},
		{Label: "3.8", Prefix: "py38"},
		{Label: "3.9", Prefix: "py39"},
		{Label: "3.10", Prefix: "py310"},
	}
	if len(cfg.CIVersions) != len(wantCI) {
		t.Fatalf("ci versions = %v", cfg.CIVersions)
	}
	for i, want := range wantCI {
		if cfg.CIVersions[i] != want {
			t.Errorf("ci[%d] = %v, want %v", i, cfg.CIVersions[i], want)
		}
	}
}

func TestParse_MultilineCommands(t *testing.T) {
	cfg, err := Parse([]byte(`[matrix]
envlist = py39

[env]
extras = dev
commands =
    make test
    make lint
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"make test", "make lint"}
	if len(cfg.Defaults.Commands) != 2 ||
		cfg.Defaults.Commands[0] != want[0] || cfg.Defaults.Commands[1] != want[1] {
		t.Errorf("commands = %v, want %v", cfg.Defaults.Commands, want)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectError error
	}{
		{
			name:        "unknown section",
			data:        "[matrix]\nenvlist = py39\n\n[bogus]\nx = 1\n",
			expectError: ErrUnknownSection,
		},
		{
			name:        "unknown key in matrix",
			data:        "[matrix]\nenvlist = py39\nbogus = 1\n",
			expectError: ErrUnknownKey,
		},
		{
			name:        "unknown key in env",
			data:        "[matrix]\nenvlist = py39\n\n[env]\ninstall = pip\n",
			expectError: ErrUnknownKey,
		},
		{
			name:        "missing envlist",
			data:        "[env]\nextras = dev\n",
			expectError: ErrMissingEnvlist,
		},
		{
			name:        "empty override name",
			data:        "[matrix]\nenvlist = py39\n\n[env:]\nextras = dev\n",
			expectError: ErrParse,
		},
		{
			name:        "empty factored extra",
			data:        "[matrix]\nenvlist = py39\n\n[env]\nextras = arduino:\n",
			expectError: ErrEmptyExtra,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Envlist == "" {
		t.Error("envlist not loaded")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func rulesEqual(a, b []ExtraRule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

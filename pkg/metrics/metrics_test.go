package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_RecordRun(t *testing.T) {
	r := NewRecorder()

	r.RecordRun("py36", true, 1500*time.Millisecond)
	r.RecordRun("lint", false, 250*time.Millisecond)

	if got := testutil.ToFloat64(r.envRuns.WithLabelValues("py36", "success")); got != 1 {
		t.Errorf("py36 success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.envRuns.WithLabelValues("lint", "failure")); got != 1 {
		t.Errorf("lint failure runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.envDuration.WithLabelValues("py36")); got != 1.5 {
		t.Errorf("py36 duration = %v, want 1.5", got)
	}
}

func TestRecorder_RecordCommand(t *testing.T) {
	r := NewRecorder()

	r.RecordCommand("py36")
	r.RecordCommand("py36")

	if got := testutil.ToFloat64(r.commands.WithLabelValues("py36")); got != 2 {
		t.Errorf("py36 commands = %v, want 2", got)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordRun("py39-metrics", true, time.Second)
	r.RecordCommand("py39-metrics")

	path := filepath.Join(t.TempDir(), "envmatrix.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		`envmatrix_env_runs_total{env="py39-metrics",result="success"} 1`,
		`envmatrix_env_duration_seconds{env="py39-metrics"} 1`,
		`envmatrix_commands_total{env="py39-metrics"} 1`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("textfile missing %q:\n%s", want, content)
		}
	}
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	a.RecordRun("py36", true, time.Second)

	if got := testutil.ToFloat64(b.envRuns.WithLabelValues("py36", "success")); got != 0 {
		t.Errorf("recorder b saw recorder a's runs: %v", got)
	}
}

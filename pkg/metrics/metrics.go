// Package metrics records per-environment run outcomes and writes
// them in Prometheus text exposition format, suitable for a
// node_exporter textfile collector directory.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder accumulates run results for one envmatrix invocation. It
// registers its collectors on a private registry so repeated
// invocations in one process never collide.
type Recorder struct {
	envRuns     *prometheus.CounterVec
	envDuration *prometheus.GaugeVec
	commands    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	return &Recorder{
		envRuns: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "envmatrix_env_runs_total",
				Help: "Environment runs by result",
			},
			[]string{"env", "result"},
		),
		envDuration: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "envmatrix_env_duration_seconds",
				Help: "Wall-clock duration of the last run of each environment",
			},
			[]string{"env"},
		),
		commands: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "envmatrix_commands_total",
				Help: "Commands executed per environment",
			},
			[]string{"env"},
		),
		registry: registry,
	}
}

// RecordCommand counts one executed command for an environment.
func (r *Recorder) RecordCommand(env string) {
	r.commands.WithLabelValues(env).Inc()
}

// RecordRun records one finished environment run.
func (r *Recorder) RecordRun(env string, succeeded bool, elapsed time.Duration) {
	result := "failure"
	if succeeded {
		result = "success"
	}
	r.envRuns.WithLabelValues(env, result).Inc()
	r.envDuration.WithLabelValues(env).Set(elapsed.Seconds())
}

// WriteTextfile writes the accumulated metrics to path atomically in
// text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the recorder's registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

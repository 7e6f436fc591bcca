// Package runner executes the commands of expanded environments and
// reports per-environment results. Environments run sequentially; a
// failing environment stops its own command list but never the run as
// a whole.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/envmatrix/internal/envdir"
	"github.com/provide-io/envmatrix/internal/logarchive"
	"github.com/provide-io/envmatrix/pkg/logging"
	"github.com/provide-io/envmatrix/pkg/matrix"
	"github.com/provide-io/envmatrix/pkg/metrics"
	"github.com/provide-io/envmatrix/pkg/utils/shlex"
)

var (
	// Execution errors 🚀
	ErrCommandFailed = errors.New("❌ command failed")
	ErrEmptyCommand  = errors.New("❌ empty command line")
)

// Options configure a Runner.
type Options struct {
	// Stdout receives prefixed command output; defaults to os.Stdout.
	Stdout io.Writer
	// Capture tees command output into the environment work directory.
	Capture bool
	// CompressLogs names the logarchive codec applied to captured
	// logs after each environment finishes.
	CompressLogs string
	// Recorder, when set, accumulates run metrics.
	Recorder *metrics.Recorder
}

// Result is the outcome of one environment run.
type Result struct {
	Env      matrix.Environment
	Err      error
	ExitCode int
	Duration time.Duration
	LogPath  string
}

// OK reports whether the environment succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Runner executes environments.
type Runner struct {
	logger hclog.Logger
	opts   Options
}

// New creates a Runner.
func New(logger hclog.Logger, opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.CompressLogs == "" {
		opts.CompressLogs = logarchive.CodecNone
	}
	return &Runner{logger: logger, opts: opts}
}

// Run executes every environment in order and returns one result per
// environment. Context cancellation stops the run between commands;
// results collected so far are returned alongside the context error.
func (r *Runner) Run(ctx context.Context, envs []matrix.Environment) ([]Result, error) {
	results := make([]Result, 0, len(envs))
	for _, env := range envs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.runEnv(ctx, env))
	}
	return results, nil
}

// Failed reports whether any result in the set failed.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.OK() {
			return true
		}
	}
	return false
}

func (r *Runner) runEnv(ctx context.Context, env matrix.Environment) Result {
	result := Result{Env: env}
	start := time.Now()

	r.logger.Info("🚀 Running environment", "env", env.Name, "extras", env.Extras)

	prefixed := logging.NewPrefixWriter(env.Name+"| ", r.opts.Stdout)
	output := io.Writer(prefixed)

	var logFile *os.File
	if r.opts.Capture {
		dir, err := envdir.EnsureEnvDir(env.Name)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		logFile, err = os.Create(envdir.LogPath(dir, env.Name))
		if err != nil {
			result.Err = fmt.Errorf("creating capture log: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		result.LogPath = logFile.Name()
		output = io.MultiWriter(prefixed, logFile)
	}

	result.ExitCode, result.Err = r.runCommands(ctx, env, output)

	if err := prefixed.Flush(); err != nil {
		r.logger.Warn("⚠️ Failed to flush output", "env", env.Name, "error", err)
	}
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			r.logger.Warn("⚠️ Failed to close capture log", "env", env.Name, "error", err)
		} else if archive, err := logarchive.Compress(result.LogPath, r.opts.CompressLogs); err != nil {
			r.logger.Warn("⚠️ Failed to compress capture log", "env", env.Name, "error", err)
		} else {
			result.LogPath = archive
		}
	}

	result.Duration = time.Since(start)
	if r.opts.Recorder != nil {
		r.opts.Recorder.RecordRun(env.Name, result.OK(), result.Duration)
	}

	if result.OK() {
		r.logger.Info("✅ Environment succeeded", "env", env.Name, "duration", result.Duration)
	} else {
		r.logger.Error("❌ Environment failed", "env", env.Name, "error", result.Err)
	}
	return result
}

// runCommands executes the environment's command list in order,
// stopping at the first failure. Returns the failure (if any) and the
// exit code of the failed command.
func (r *Runner) runCommands(ctx context.Context, env matrix.Environment, output io.Writer) (int, error) {
	environ := commandEnv(env)
	logEnvironmentTrace(environ, r.logger)

	for _, command := range env.Commands {
		argv, err := shlex.Split(command)
		if err != nil {
			return 0, fmt.Errorf("parsing command %q: %w", command, err)
		}
		if len(argv) == 0 {
			return 0, fmt.Errorf("%w: %q", ErrEmptyCommand, command)
		}

		r.logger.Debug("🚀 Executing command", "env", env.Name, "command", argv)

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = output
		cmd.Stderr = output
		cmd.Env = environ

		if err := cmd.Start(); err != nil {
			return 0, fmt.Errorf("failed to start %q: %w", argv[0], err)
		}
		if r.opts.Recorder != nil {
			r.opts.Recorder.RecordCommand(env.Name)
		}
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code := exitErr.ExitCode()
				r.logger.Info("⏹️ Command exited", "env", env.Name, "code", code)
				return code, fmt.Errorf("%w: %q exit code %d", ErrCommandFailed, command, code)
			}
			return 0, fmt.Errorf("command %q: %w", command, err)
		}
	}
	return 0, nil
}

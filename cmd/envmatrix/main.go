package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/envmatrix/internal/logarchive"
	"github.com/provide-io/envmatrix/pkg/config"
	"github.com/provide-io/envmatrix/pkg/logging"
	"github.com/provide-io/envmatrix/pkg/matrix"
	"github.com/provide-io/envmatrix/pkg/metrics"
	"github.com/provide-io/envmatrix/pkg/runner"
)

const version = "0.4.0"

var (
	configPath   string
	logLevel     string
	showExtras   bool
	envSelection string
	ciVersion    string
	metricsFile  string
	captureLogs  bool
	compressLogs string
	versionFlag  bool
	rootCmd      *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "envmatrix",
		Short: "Expand and run test environment matrices",
		Long:  `Expand a declared version × feature matrix into environments and run their commands`,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to the matrix configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the expanded environments",
		Run:   listEnvironments,
	}
	listCmd.Flags().BoolVar(&showExtras, "extras", false, "Show resolved extras and commands per environment")

	runCmd := &cobra.Command{
		Use:   "run [environments...]",
		Short: "Run environments from the matrix",
		Run:   runEnvironments,
	}
	runCmd.Flags().StringVarP(&envSelection, "envs", "e", "", "Comma-separated environment names to run")
	runCmd.Flags().StringVar(&ciVersion, "ci-version", "", "Select environments via the [ci] interpreter mapping (e.g. 3.9)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
	runCmd.Flags().BoolVar(&captureLogs, "capture", false, "Capture command output into the environment work directory")
	runCmd.Flags().StringVar(&compressLogs, "compress-logs", logarchive.CodecNone, "Compress captured logs (none, gzip, bzip2)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration as JSON",
		Run:   showConfiguration,
	}

	rootCmd.AddCommand(listCmd, runCmd, showCmd)
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("envmatrix %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// expandConfig loads the configuration file and expands the matrix.
func expandConfig() (*config.Config, []matrix.Environment) {
	logger := newLogger("envmatrix")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("❌ Failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	envs, err := matrix.Expand(cfg)
	if err != nil {
		logger.Error("❌ Failed to expand matrix", "error", err)
		os.Exit(1)
	}
	return cfg, envs
}

func listEnvironments(cmd *cobra.Command, args []string) {
	_, envs := expandConfig()

	for _, env := range envs {
		if showExtras {
			fmt.Printf("%-16s extras=[%s] commands=[%s]\n",
				env.Name,
				strings.Join(env.Extras, ","),
				strings.Join(env.Commands, "; "))
		} else {
			fmt.Println(env.Name)
		}
	}
}

func runEnvironments(cmd *cobra.Command, args []string) {
	logger := newLogger("envmatrix.run")
	cfg, envs := expandConfig()

	selected, err := selectEnvironments(cfg, envs, args)
	if err != nil {
		logger.Error("❌ Failed to select environments", "error", err)
		os.Exit(1)
	}
	if len(selected) == 0 {
		logger.Warn("⚠️ Nothing to run")
		return
	}

	if !logarchive.ValidCodec(compressLogs) {
		logger.Error("❌ Invalid --compress-logs value", "codec", compressLogs)
		os.Exit(1)
	}

	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(logger, runner.Options{
		Capture:      captureLogs || compressLogs != logarchive.CodecNone,
		CompressLogs: compressLogs,
		Recorder:     recorder,
	})

	results, runErr := r.Run(ctx, selected)

	if recorder != nil {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			logger.Error("❌ Failed to write metrics file", "path", metricsFile, "error", err)
		}
	}

	printSummary(results)

	if runErr != nil {
		logger.Error("❌ Run interrupted", "error", runErr)
		os.Exit(1)
	}
	if runner.Failed(results) {
		os.Exit(1)
	}
}

// selectEnvironments narrows the expansion down to what the flags and
// arguments ask for. Positional names and -e combine; --ci-version is
// exclusive with both.
func selectEnvironments(cfg *config.Config, envs []matrix.Environment, args []string) ([]matrix.Environment, error) {
	var names []string
	names = append(names, args...)
	if envSelection != "" {
		for _, name := range strings.Split(envSelection, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	if ciVersion != "" {
		if len(names) > 0 {
			return nil, fmt.Errorf("--ci-version cannot be combined with explicit environment names")
		}
		return matrix.SelectCI(envs, cfg, ciVersion)
	}
	if len(names) == 0 {
		return envs, nil
	}
	return matrix.Select(envs, names)
}

func printSummary(results []runner.Result) {
	fmt.Println("\nSummary:")
	for _, result := range results {
		if result.OK() {
			fmt.Printf("  ✓ %s (%s)\n", result.Env.Name, result.Duration.Round(time.Millisecond))
		} else {
			fmt.Printf("  ✗ %s (%s): %v\n", result.Env.Name, result.Duration.Round(time.Millisecond), result.Err)
		}
	}
	if !runner.Failed(results) {
		fmt.Println("\n✓ All environments passed")
	} else {
		fmt.Println("\n✗ Some environments failed")
	}
}

func showConfiguration(cmd *cobra.Command, args []string) {
	_, envs := expandConfig()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode environments: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(name string) hclog.Logger {
	level := logLevel
	if level == "" {
		level = logging.GetLogLevel()
	}
	return logging.NewLogger(name, level, nil)
}

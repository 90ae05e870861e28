package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	jsonpool "github.com/ajitpratap0/wrangler/pkg/json"
	"github.com/ajitpratap0/wrangler/pkg/logger"
	"github.com/ajitpratap0/wrangler/pkg/observability"
)

var version = "0.1.0"

// app holds state shared by every subcommand.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string

	cfg      *config.Config
	logger   *zap.Logger
	shutdown func(context.Context) error
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.finish()

	if err != nil {
		writeError(stderr, err)
		return exitCode(err)
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wrangler",
		Short: "Wrangler - dataset ingress and pipeline persistence",
		Long: `Wrangler accepts datasets from uploads, URLs, object storage and source
version ids, normalizes them to JSON under ~/.docetl/<namespace>, and saves
pipeline configurations locally or to versioned object storage.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		a.versionCmd(),
		a.datasetCmd(),
		a.pipelineCmd(),
		a.namespaceCmd(),
	)
	return root
}

// setup loads configuration and initializes logging and tracing.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "Failed to load configuration")
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := logger.Init(cfg.Log); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "Failed to initialize logger")
	}

	shutdown, err := observability.Init(cfg.Observability)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "Failed to initialize tracing")
	}

	a.cfg = cfg
	a.logger = logger.Get()
	a.shutdown = shutdown

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.ContextWithRequestID(ctx, uuid.NewString()))
	return nil
}

// finish flushes traces, metrics and logs. It runs even when the command
// failed.
func (a *app) finish() {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("failed to shut down tracing", zap.Error(err))
		}
		cancel()
	}
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, prometheus.DefaultGatherer); err != nil && a.logger != nil {
			a.logger.Warn("failed to write metrics textfile", zap.String("path", a.metricsFile), zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// commandContext returns the command context, which carries the request id
// set in setup.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// No configuration is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"version": version,
				"go":      runtime.Version(),
				"os_arch": runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := jsonpool.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "Failed to encode result")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeError reports err on w as a JSON object with type, message and any
// details.
func writeError(w io.Writer, err error) {
	payload := map[string]interface{}{
		"error":   string(errors.TypeOf(err)),
		"message": err.Error(),
	}
	if details := errors.Details(err); len(details) > 0 {
		payload["details"] = details
	}
	if werr := writeJSON(w, payload); werr != nil {
		fmt.Fprintln(w, err)
	}
}

// exitCode maps an error kind to a process exit code.
func exitCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidArgument:
		return 2
	case errors.ErrorTypeNotFound:
		return 3
	case errors.ErrorTypeConfig, errors.ErrorTypeDisabled:
		return 4
	default:
		return 1
	}
}

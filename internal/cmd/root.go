// Package cmd implements the docgate command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/internal/config"
	"github.com/vnykmshr/docgate/internal/observability"
	"github.com/vnykmshr/docgate/pkg/metrics"
	"github.com/vnykmshr/docgate/pkg/submission"
)

var versionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// SetVersionInfo is called by the main package with ldflags values.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// flagBindings maps persistent flags to config keys.
var flagBindings = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"url":        "client.url",
	"capacity":   "client.capacity",
	"window":     "client.window",
	"max-wait":   "client.max_wait",
}

// NewRootCommand builds the docgate command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docgate",
		Short: "Rate-limited document submission gateway",
		Long: `docgate forwards signed documents to the registration API while keeping
the number of requests per time window under a configured limit.

Configuration is read from defaults, then the --config file, then DOCGATE_*
environment variables, then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd.Flags())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "json", "log format: json or console")
	flags.String("url", submission.DefaultURL, "registration API endpoint")
	flags.Int("capacity", submission.DefaultCapacity, "requests allowed per window")
	flags.Duration("window", submission.DefaultWindow, "rate limit window")
	flags.Duration("max-wait", 0, "longest wait for a permit (0 waits until canceled)")

	root.AddCommand(
		newSubmitCommand(a),
		newServeCommand(a),
		newWatchCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) load(flags *pflag.FlagSet) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	for flag, key := range flagBindings {
		// Only explicitly set flags override file and environment values.
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("url", cfg.Client.URL),
		zap.Int("capacity", cfg.Client.Capacity),
		zap.Duration("window", cfg.Client.Window))
	return nil
}

// newClient builds the submission client described by the loaded config.
// When metrics are enabled they go to reg, or to metrics.DefaultRegistry
// when reg is nil.
func (a *app) newClient(reg prometheus.Registerer) (*submission.Client, *metrics.Registry, error) {
	opts := []submission.Option{
		submission.WithTransport(submission.NewHTTPTransport(a.cfg.TransportConfig())),
		submission.WithLogger(a.logger),
	}

	registry := metrics.Config{Enabled: a.cfg.Metrics.Enabled, Registry: reg}.Resolve()
	if registry != nil {
		opts = append(opts, submission.WithMetrics(registry))
	}

	client, err := submission.New(a.cfg.SubmissionConfig(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, registry, nil
}

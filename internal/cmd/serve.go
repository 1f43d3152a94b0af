package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/docgate/internal/server"
	"github.com/vnykmshr/docgate/pkg/metrics"
	"github.com/vnykmshr/docgate/pkg/ratelimit/concurrency"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the intake HTTP server",
		Long: `Accept documents on POST /v1/documents and forward them through one shared
rate-limited client. GET /healthz reports limiter state and GET /metrics
exposes Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			client, _, err := a.newClient(nil)
			if err != nil {
				return err
			}
			defer client.Close()

			pending, err := concurrency.NewWithMetrics(
				concurrency.Config{Capacity: a.cfg.Server.MaxPending},
				"intake",
				metrics.Config{Enabled: a.cfg.Metrics.Enabled},
			)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Addr:            addr,
				ReadTimeout:     a.cfg.Server.ReadTimeout,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				Client:          client,
				Pending:         pending,
				Defaults:        a.cfg.DocumentDefaults(),
				Logger:          a.logger,
				Gatherer:        prometheus.DefaultGatherer,
			})
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}

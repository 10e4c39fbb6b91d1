package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reoring/skema/i18n"
	"github.com/reoring/skema/internal/config"
	"github.com/reoring/skema/internal/logging"
	"github.com/reoring/skema/internal/server"
	"github.com/reoring/skema/metrics"
)

const shutdownGrace = 5 * time.Second

func newServeCmd(root *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation HTTP server",
		Long: `Serves POST /validate/{schema}, GET /schemas, GET /schemas/{schema},
GET /metrics and GET /healthz. Settings come from SKEMA_* environment
variables (and .env); flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if root.schemasFile != "" {
				cfg.SchemasFile = root.schemasFile
			}
			if root.lang != "" {
				cfg.Lang = root.lang
			}
			i18n.SetLanguage(cfg.Lang)

			log := cfg.Logger(
				logging.WithOutput(cmd.ErrOrStderr()),
				logging.WithAttr(slog.String("service", "skema")),
				logging.WithContextExtractors(server.RequestIDAttr),
			)
			cat, err := loadCatalog(cfg.SchemasFile)
			if err != nil {
				return err
			}

			h := server.New(cat, server.Options{
				Logger:   log,
				Metrics:  metrics.New(prometheus.DefaultRegisterer),
				Gatherer: prometheus.DefaultGatherer,
				MaxBytes: cfg.MaxBodyBytes,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg.Addr, h, shutdownGrace, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SKEMA_ADDR)")
	return cmd
}

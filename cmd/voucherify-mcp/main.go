package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voucherifyio/core-mcp/internal/infra/config"
	"github.com/voucherifyio/core-mcp/internal/infra/server"
	"github.com/voucherifyio/core-mcp/internal/infra/telemetry"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var transport string

	root := &cobra.Command{
		Use:   "voucherify-mcp",
		Short: "MCP server exposing the Voucherify API as a tool catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.Transport = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			metrics := telemetry.NewPrometheusMetrics(nil)
			srv, err := server.New(server.Options{
				Config:  cfg,
				Logger:  logger,
				Metrics: metrics,
			})
			if err != nil {
				return err
			}

			logger.Info("starting voucherify mcp server",
				zap.String("transport", cfg.Transport),
				zap.String("api_base_url", cfg.BaseURL))

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return srv.Run(groupCtx)
			})
			if cfg.MetricsAddr != "" {
				group.Go(func() error {
					return telemetry.StartMetricsServer(groupCtx, cfg.MetricsAddr, prometheus.DefaultGatherer, logger)
				})
			}
			return group.Wait()
		},
	}

	root.Flags().StringVar(&transport, "transport", "", "transport override: stdio or streamable-http (default from MCP_TRANSPORT)")
	return root
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

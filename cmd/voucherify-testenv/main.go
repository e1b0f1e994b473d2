package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voucherifyio/core-mcp/internal/infra/config"
	"github.com/voucherifyio/core-mcp/internal/infra/testenv"
	"github.com/voucherifyio/core-mcp/internal/infra/upstream"
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
	root := &cobra.Command{
		Use:   "voucherify-testenv",
		Short: "Manage the ephemeral Voucherify test project",
	}
	root.AddCommand(
		newProvisionCmd(logger),
		newTeardownCmd(logger),
		newStatusCmd(logger),
	)
	return root
}

func newManager(logger *zap.Logger) (*testenv.Manager, *testenv.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := testenv.OpenStore(cfg.TestEnvPath)
	if err != nil {
		return nil, nil, err
	}
	client := upstream.NewClient(upstream.Options{
		Timeout: cfg.UpstreamTimeout,
		Logger:  logger,
	})
	manager, err := testenv.NewManager(store, client, upstream.ManagementContext{
		ID:      cfg.ManagementID,
		Token:   cfg.ManagementToken,
		BaseURL: cfg.BaseURL,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return manager, store, nil
}

func newProvisionCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create a fresh test project with the standard fixture set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			manager, store, err := newManager(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := manager.Provision(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, record)
		},
	}
}

func newTeardownCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Delete the recorded test project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			manager, store, err := newManager(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			return manager.Teardown(ctx)
		},
	}
}

func newStatusCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorded test project, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, store, err := newManager(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			record, found, err := manager.Status()
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "no test project recorded")
				return nil
			}
			return printJSON(cmd, record)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
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

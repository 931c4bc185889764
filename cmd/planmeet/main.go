// Package main is the planmeet binary: the directory/session service, the
// checklist service and the Postgres migration runner.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/observability"
	"github.com/spec-kit/planmeet/internal/persistence"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "planmeet",
		Short:         "Team checklist board backed by Keycloak",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(directoryCmd(), checklistCmd(), migrateCmd())
	return cmd
}

func directoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directory",
		Short: "Run the directory and session service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(config.ServiceDirectory)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runDirectory(cmd.Context(), cfg, logger)
		},
	}
}

func checklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checklist",
		Short: "Run the checklist and submission service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(config.ServiceChecklist)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runChecklist(cmd.Context(), cfg, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations for the Postgres checklist store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logger, "migrate")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
		},
	}
}

func bootstrap(service string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(service); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, service)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// serve listens on addr until the listener fails or SIGINT/SIGTERM arrives,
// then drains in-flight requests.
func serve(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-sigCtx.Done():
		logger.Info("shutting down")
	}
	return app.ShutdownWithTimeout(shutdownTimeout)
}

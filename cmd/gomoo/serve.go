// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	authpg "github.com/bubblehouse/gomoo/internal/auth/postgres"
	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/config"
	"github.com/bubblehouse/gomoo/internal/logging"
	"github.com/bubblehouse/gomoo/internal/observability"
	"github.com/bubblehouse/gomoo/internal/script"
	"github.com/bubblehouse/gomoo/internal/store"
	"github.com/bubblehouse/gomoo/internal/world"
	worldpg "github.com/bubblehouse/gomoo/internal/world/postgres"
)

// shutdownTimeout bounds graceful shutdown of auxiliary servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the world server",
		Long: `Start the world server: connects to PostgreSQL, applies pending
migrations, and serves the world engine with its observability endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.format", "", "log format (json or text)")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("observability.metrics_addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("gomoo", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("failed to close migrator", "error", err)
	}

	players := authpg.NewPlayerRepository(pool)
	engine := access.NewEngine(worldpg.NewRuleRepository(pool), players)
	host := script.NewHost(script.HostConfig{
		Timeout: time.Duration(cfg.Script.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})

	svc := world.NewService(world.ServiceConfig{
		ObjectRepo:   worldpg.NewObjectRepository(pool),
		PropertyRepo: worldpg.NewPropertyRepository(pool),
		VerbRepo:     worldpg.NewVerbRepository(pool),
		RuleRepo:     worldpg.NewRuleRepository(pool),
		Checker:      engine,
		Transactor:   worldpg.NewTransactor(pool),
		Invoker:      host,
		Logger:       logger,
	})
	host.SetWorld(svc)

	var obsErrCh <-chan error
	var obs *observability.Server
	if cfg.Observability.MetricsAddr != "" {
		obs = observability.NewServer(cfg.Observability.MetricsAddr, func() bool {
			return pool.Ping(ctx) == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
	}

	logger.Info("world server ready")

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			return oops.Code("OBSERVABILITY_FAILED").Wrap(serveErr)
		}
	}

	if obs != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("observability shutdown failed", "error", err)
		}
	}
	return nil
}

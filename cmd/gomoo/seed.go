// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/auth"
	authpg "github.com/bubblehouse/gomoo/internal/auth/postgres"
	"github.com/bubblehouse/gomoo/internal/bootstrap"
	"github.com/bubblehouse/gomoo/internal/config"
	"github.com/bubblehouse/gomoo/internal/script"
	"github.com/bubblehouse/gomoo/internal/store"
	"github.com/bubblehouse/gomoo/internal/world"
	worldpg "github.com/bubblehouse/gomoo/internal/world/postgres"
)

// defaultSeedTimeout bounds the whole seed run.
const defaultSeedTimeout = 60 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file           string
	wizardPassword string
	timeout        time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the world with initial data",
		Long: `Loads a declarative world seed into the database. With no --file,
the embedded default world is used. This command is idempotent: objects
with unique names are reused rather than recreated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "", "seed YAML file (default: embedded default world)")
	cmd.Flags().StringVar(&cfg.wizardPassword, "player-password", "", "password assigned to accounts the seed creates")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for the seed run")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")

	return cmd
}

func runSeed(cmd *cobra.Command, seedCfg *seedConfig) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if seedCfg.wizardPassword == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--player-password is required")
	}

	var seed *bootstrap.Seed
	if seedCfg.file != "" {
		data, err := os.ReadFile(seedCfg.file)
		if err != nil {
			return oops.Code("SEED_READ_FAILED").With("file", seedCfg.file).Wrap(err)
		}
		seed, err = bootstrap.Parse(data)
		if err != nil {
			return err
		}
	} else {
		seed, err = bootstrap.DefaultSeed()
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	logger := slog.Default()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
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

	objects := worldpg.NewObjectRepository(pool)
	players := authpg.NewPlayerRepository(pool)
	host := script.NewHost(script.HostConfig{Logger: logger})
	svc := world.NewService(world.ServiceConfig{
		ObjectRepo:   objects,
		PropertyRepo: worldpg.NewPropertyRepository(pool),
		VerbRepo:     worldpg.NewVerbRepository(pool),
		RuleRepo:     worldpg.NewRuleRepository(pool),
		Checker:      access.NewEngine(worldpg.NewRuleRepository(pool), players),
		Transactor:   worldpg.NewTransactor(pool),
		Invoker:      host,
		Logger:       logger,
	})
	host.SetWorld(svc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Players: players,
		Hasher:  auth.NewArgon2idHasher(),
		Logger:  logger,
	})

	applier := bootstrap.NewApplier(bootstrap.ApplierConfig{
		World:   svc,
		Objects: objects,
		Auth:    authSvc,
		Logger:  logger,
	})

	cmd.Printf("Applying seed %q...\n", seed.Name)
	if err := applier.Apply(ctx, seed, bootstrap.Options{
		PlayerPassword: seedCfg.wizardPassword,
	}); err != nil {
		return err
	}

	cmd.Println("Seed applied successfully")
	return nil
}

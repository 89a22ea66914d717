// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/bubblehouse/gomoo/internal/config"
	"github.com/bubblehouse/gomoo/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var steps int
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending schema migrations against the PostgreSQL database.
With --down, rolls back all migrations (destructive). With --steps N,
applies exactly N migrations up (or -N down).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, steps, down)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, "apply exactly N migrations (negative for down)")
	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations (drops all world data)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")

	return cmd
}

func runMigrate(cmd *cobra.Command, steps int, down bool) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck // close error is secondary to migration outcome

	switch {
	case down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
	case steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", steps)
		if err := migrator.Steps(steps); err != nil {
			return err
		}
	default:
		cmd.Println("Applying pending migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	ver, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	name, err := store.MigrationName(ver)
	if err != nil {
		return err
	}
	if name == "" {
		cmd.Printf("Schema version: %d (dirty: %v)\n", ver, dirty)
	} else {
		cmd.Printf("Schema version: %s (dirty: %v)\n", name, dirty)
	}
	return nil
}

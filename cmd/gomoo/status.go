// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bubblehouse/gomoo/internal/config"
	"github.com/bubblehouse/gomoo/internal/store"
)

// statusTimeout bounds the database probe.
const statusTimeout = 5 * time.Second

// WorldStatus holds the status report for the world database.
type WorldStatus struct {
	DatabaseReachable bool   `json:"database_reachable"`
	SchemaVersion     string `json:"schema_version,omitempty"`
	SchemaDirty       bool   `json:"schema_dirty,omitempty"`
	PendingMigrations int    `json:"pending_migrations"`
	Objects           int64  `json:"objects"`
	Players           int64  `json:"players"`
	Error             string `json:"error,omitempty"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show world database status",
		Long: `Probe the PostgreSQL database and report schema version, pending
migrations, and world population counts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	status := queryWorldStatus(ctx, cfg.Database.URL)

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(formatStatusTable(status))
	return nil
}

// queryWorldStatus probes the database and collects the report. A probe
// failure is reported in the status rather than aborting the command.
func queryWorldStatus(ctx context.Context, databaseURL string) WorldStatus {
	var status WorldStatus

	pool, err := store.Connect(ctx, databaseURL, slog.New(slog.DiscardHandler))
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer pool.Close()
	status.DatabaseReachable = true

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = fmt.Sprintf("failed to init migrator: %v", err)
		return status
	}
	defer migrator.Close() //nolint:errcheck // close error is secondary to the report

	ver, dirty, err := migrator.Version()
	if err != nil {
		status.Error = fmt.Sprintf("failed to read schema version: %v", err)
		return status
	}
	status.SchemaDirty = dirty
	if name, nameErr := store.MigrationName(ver); nameErr == nil && name != "" {
		status.SchemaVersion = name
	} else if ver > 0 {
		status.SchemaVersion = fmt.Sprintf("%d", ver)
	}

	pending, err := migrator.PendingMigrations()
	if err != nil {
		status.Error = fmt.Sprintf("failed to list pending migrations: %v", err)
		return status
	}
	status.PendingMigrations = len(pending)

	// Population counts are best-effort: a fresh database has no tables yet.
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM objects`).Scan(&status.Objects); err != nil {
		return status
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM players`).Scan(&status.Players); err != nil {
		return status
	}
	return status
}

// formatStatusTable renders the report as a human-readable table.
func formatStatusTable(status WorldStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	reachable := "no"
	if status.DatabaseReachable {
		reachable = "yes"
	}
	_, _ = fmt.Fprintf(w, "database reachable:\t%s\n", reachable)
	if status.SchemaVersion != "" {
		_, _ = fmt.Fprintf(w, "schema version:\t%s (dirty: %v)\n", status.SchemaVersion, status.SchemaDirty)
	} else {
		_, _ = fmt.Fprintf(w, "schema version:\tnone\n")
	}
	_, _ = fmt.Fprintf(w, "pending migrations:\t%d\n", status.PendingMigrations)
	if status.DatabaseReachable && status.Error == "" {
		_, _ = fmt.Fprintf(w, "objects:\t%d\n", status.Objects)
		_, _ = fmt.Fprintf(w, "players:\t%d\n", status.Players)
	}
	if status.Error != "" {
		_, _ = fmt.Fprintf(w, "error:\t%s\n", status.Error)
	}

	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

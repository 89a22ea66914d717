// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bubblehouse/gomoo/internal/bootstrap"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seeds",
		Short: "Validate all embedded seed files without touching a database",
		Long: `Validates every embedded seed file against the seed schema and
checks internal reference consistency. Does NOT require a database.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed errors early:
  gomoo validate-seeds`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runValidateSeeds()
		},
	}
}

func runValidateSeeds() error {
	seeds, err := bootstrap.EmbeddedSeeds()
	if err != nil {
		return err
	}

	var failures []string
	for name, data := range seeds {
		if _, err := bootstrap.Parse(data); err != nil {
			failures = append(failures, fmt.Sprintf("  %s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		for _, f := range failures {
			slog.Error("seed validation failed", "detail", f)
		}
		return fmt.Errorf("validation failed: %d of %d seed files invalid", len(failures), len(seeds))
	}

	slog.Info("all seed files valid", "count", len(seeds))
	return nil
}

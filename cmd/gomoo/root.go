// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the GoMOO CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gomoo",
		Short: "GoMOO - a persistent multi-user virtual world server",
		Long: `GoMOO is a persistent multi-user virtual world server built around
prototype inheritance, capability-based access control, and sandboxed
Lua verbs.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedsCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/scylla/scylla/internal/config"
	"github.com/scylla/scylla/internal/xdg"
)

const serviceName = "scylla"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Scylla CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scylla",
		Short: "Scylla - credential and token lifecycle service",
		Long: `Scylla registers users, authenticates them into server-side sessions,
and runs the email verification and password reset token flows.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/scylla/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig reads the config file named by --config (or the XDG default),
// the environment and the override flags of cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
	}
	return config.Load(path, cmd.Flags()) //nolint:wrapcheck // already coded
}

// ABOUTME: Root cobra command and the shared lifecycle of the core
// ABOUTME: Loads config, sets up logging and closes the core after each command

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/config"
	"github.com/2389/profilevault/internal/core"
)

// active is the core of the running command; main closes it when a
// command fails before the post-run hook.
var active *core.Core

var (
	flagConfig  string
	flagJSON    bool
	flagVerbose bool
)

// Commands that never touch the store skip core construction.
var standalone = map[string]bool{
	"version":    true,
	"key":        true,
	"help":       true,
	"completion": true,
	"__complete": true,
}

var rootCmd = &cobra.Command{
	Use:           "profilevault",
	Short:         "Manage per-user configuration profiles",
	Long:          banner + "\nprofilevault stores configuration profiles in SQLite and moves them\nthrough JSON, XML, YAML and TOML backups.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if standalone[cmd.Name()] {
			return nil
		}

		path := flagConfig
		if path == "" {
			path = getConfigPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagVerbose {
			cfg.Logging.Level = "debug"
		}

		logger := setupLogger(cfg.Logging, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		logger.Debug("config loaded", "path", path)

		c := core.New(cfg, logger)
		active = c
		cmd.SetContext(core.WithContext(cmd.Context(), c))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		c := core.FromContext(cmd.Context())
		if c == nil {
			return nil
		}
		return c.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default $PROFILEVAULT_CONFIG or ~/.config/profilevault/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(versionCmd)
}

// coreFrom returns the core attached by the root pre-run hook.
func coreFrom(cmd *cobra.Command) (*core.Core, error) {
	c := core.FromContext(cmd.Context())
	if c == nil {
		return nil, fmt.Errorf("%s: core not initialised", cmd.Name())
	}
	return c, nil
}

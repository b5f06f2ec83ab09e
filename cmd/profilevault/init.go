// ABOUTME: init command
// ABOUTME: Writes a default config file and creates the database and backup directories

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file and create the profile database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}
		cfg := c.Config()
		out := cmd.OutOrStdout()

		path := flagConfig
		if path == "" {
			path = getConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintf(out, "config exists at %s (use --force to overwrite)\n", path)
		} else {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			header := []byte("# profilevault configuration\n# Generated by profilevault init\n\n")
			if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
				return fmt.Errorf("writing config file: %w", err)
			}
			success(out, "Config written to %s", path)
		}

		if err := os.MkdirAll(cfg.Backup.Dir, 0755); err != nil {
			return fmt.Errorf("creating backup directory: %w", err)
		}
		if _, err := c.Store(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(out, "Database:   %s\n", cfg.Database.Path)
		fmt.Fprintf(out, "Backups:    %s\n", cfg.Backup.Dir)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

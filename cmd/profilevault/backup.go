// ABOUTME: export and import commands
// ABOUTME: Move profiles between the store and per-variant backup files

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/backup"
	"github.com/2389/profilevault/internal/core"
)

var (
	backupDir    string
	backupFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored profile to backup files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}
		dir, f, err := backupTarget(c)
		if err != nil {
			return err
		}

		n, err := c.Preload(cmd.Context())
		if err != nil {
			return err
		}
		if !c.Export(dir, f) {
			return fmt.Errorf("export to %s failed", dir)
		}
		success(cmd.OutOrStdout(), "Exported %d profiles to %s (%s)", n, dir, f)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load profiles from backup files into the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}
		dir, f, err := backupTarget(c)
		if err != nil {
			return err
		}

		n := c.Import(dir, f)
		if n > 0 && !c.SaveAll(cmd.Context()) {
			return errors.New("saving profiles failed")
		}
		success(cmd.OutOrStdout(), "Imported %d profiles from %s (%s)", n, dir, f)
		return nil
	},
}

// backupTarget resolves the directory and format from flags, falling back
// to the config.
func backupTarget(c *core.Core) (string, backup.Format, error) {
	cfg := c.Config()
	dir := backupDir
	if dir == "" {
		dir = cfg.Backup.Dir
	}
	f := cfg.BackupFormat()
	if backupFormat != "" {
		parsed, err := backup.ParseFormat(backupFormat)
		if err != nil {
			return "", "", err
		}
		f = parsed
	}
	return dir, f, nil
}

func init() {
	for _, cmd := range []*cobra.Command{exportCmd, importCmd} {
		cmd.Flags().StringVarP(&backupDir, "dir", "d", "", "backup directory (defaults to backup.dir)")
		cmd.Flags().StringVarP(&backupFormat, "format", "f", "", "backup format: json, xml, yaml or toml (defaults to backup.format)")
	}
}

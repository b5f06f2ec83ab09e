// ABOUTME: set command
// ABOUTME: Writes one setting through the binder and saves the profile

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/binder"
	"github.com/2389/profilevault/internal/keys"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <category> <key> <value>",
	Short: "Set one setting of a profile",
	Long: `Set one setting of a profile.

Numeric values are stored as integers. "true" and "false" are stored as
booleans. Everything else is stored as a string.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		id, category, key, raw := args[0], args[1], args[2], args[3]

		if _, err := c.Preload(ctx); err != nil {
			return err
		}
		p, ok := c.Cache().Get(id)
		if !ok {
			return fmt.Errorf("profile %s not found", id)
		}

		b := binder.New(c.Cache(), p.ID, p.Variant, nil)
		if err := b.SaveSetting(category, key, parseValue(raw)); err != nil {
			return fmt.Errorf("setting %s.%s: %w", category, key, err)
		}
		if !c.SaveAll(ctx) {
			return errors.New("saving profiles failed")
		}

		generated, err := keys.Generate(p.Variant, category, key)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Set %s.%s on %s (%s)", category, key, p.Name, generated)
		return nil
	},
}

func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

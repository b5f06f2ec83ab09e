// ABOUTME: create command
// ABOUTME: Adds a new profile through the cache and saves it to the store

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/store"
)

var (
	createVariant   string
	createMode      string
	createPlaystyle string
	createNotes     string
	createMember    bool
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(args[0])
		if name == "" {
			return errors.New("profile name is required")
		}

		variant := c.Config().DefaultVariant()
		if createVariant != "" {
			v, known := keys.ParseVariant(createVariant)
			if !known {
				return fmt.Errorf("unknown variant %q", createVariant)
			}
			variant = v
		}

		p := store.NewProfile(name, variant)
		p.Mode = createMode
		p.Playstyle = createPlaystyle
		p.Notes = createNotes
		p.Membership = createMember

		added, err := c.Cache().Add(p)
		if err != nil {
			return fmt.Errorf("creating profile: %w", err)
		}
		if !c.SaveAll(cmd.Context()) {
			return errors.New("saving profiles failed")
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), added)
		}
		success(cmd.OutOrStdout(), "Created profile %s (%s)", added.Name, added.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createVariant, "variant", "", "profile variant (defaults to the configured variant)")
	createCmd.Flags().StringVar(&createMode, "mode", "", "profile mode")
	createCmd.Flags().StringVar(&createPlaystyle, "playstyle", "", "profile playstyle")
	createCmd.Flags().StringVar(&createNotes, "notes", "", "free-form notes")
	createCmd.Flags().BoolVar(&createMember, "member", false, "mark the profile as a member profile")
}

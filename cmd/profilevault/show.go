// ABOUTME: show command
// ABOUTME: Prints one profile and its flattened settings

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}

		p := c.Get(cmd.Context(), args[0])
		if p == nil {
			return fmt.Errorf("profile %s not found", args[0])
		}

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printProfile(cmd.OutOrStdout(), p)
		return nil
	},
}

// ABOUTME: delete command
// ABOUTME: Removes a profile from the cache and the store

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}

		if !c.Delete(cmd.Context(), args[0]) {
			return fmt.Errorf("profile %s not found", args[0])
		}
		success(cmd.OutOrStdout(), "Deleted profile %s", args[0])
		return nil
	},
}

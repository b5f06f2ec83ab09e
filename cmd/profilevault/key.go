// ABOUTME: key command
// ABOUTME: Prints the generated storage key for a panel component

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/keys"
)

var keyCmd = &cobra.Command{
	Use:   "key <variant> <panel> <component>",
	Short: "Print the storage key for a component",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := keys.ParseVariant(args[0])
		key, err := keys.Generate(v, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

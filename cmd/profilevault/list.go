// ABOUTME: list command
// ABOUTME: Prints every stored profile ordered by name

package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/store"
)

var listVariant string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coreFrom(cmd)
		if err != nil {
			return err
		}

		profiles := c.LoadAll(cmd.Context())
		if listVariant != "" {
			v, _ := keys.ParseVariant(listVariant)
			filtered := profiles[:0]
			for _, p := range profiles {
				if p.Variant == v {
					filtered = append(filtered, p)
				}
			}
			profiles = filtered
		}
		sort.SliceStable(profiles, func(i, j int) bool {
			if profiles[i].Name != profiles[j].Name {
				return profiles[i].Name < profiles[j].Name
			}
			return profiles[i].ID < profiles[j].ID
		})

		if flagJSON {
			if profiles == nil {
				profiles = []*store.Profile{}
			}
			return printJSON(cmd.OutOrStdout(), profiles)
		}
		printProfileTable(cmd.OutOrStdout(), profiles)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listVariant, "variant", "", "only list profiles of this variant")
}

// Remove command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var removeCmd = &cobra.Command{
	Use:   "remove <entity-type> <entity-id> <attribute>",
	Short: "Remove one attribute value from an entity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := types.EntityRef{Type: args[0], ID: args[1]}

		engine, err := attachEngine()
		if err != nil {
			fail("remove", err)
		}
		defer engine.Detach()

		if err := engine.Remove(ref, args[2]); err != nil {
			fail("remove", err)
		}

		fmt.Printf("removed %q from %s/%s\n", args[2], ref.Type, ref.ID)
		return nil
	},
}

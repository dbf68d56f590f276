// Get command for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <entity-type> <entity-id> [attribute]",
	Short: "Read attribute values from an entity",
	Long: `Read one attribute value, or every stored value when no attribute name
is given. An unset value prints as null.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := types.EntityRef{Type: args[0], ID: args[1]}

		engine, err := attachEngine()
		if err != nil {
			fail("get", err)
		}
		defer engine.Detach()

		if len(args) == 2 {
			values, err := engine.GetAll(ref)
			if err != nil {
				fail("get", err)
			}
			printJSON(values)
			return nil
		}

		val, err := engine.GetOne(ref, args[2])
		if err != nil {
			fail("get", err)
		}
		printResult(val)
		return nil
	},
}

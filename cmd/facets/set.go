// Set command for the facets CLI.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var setCmd = &cobra.Command{
	Use:   "set <entity-type> <entity-id> <json>",
	Short: "Set attribute values on an entity",
	Long: `Set one or more attribute values on an entity from a JSON object keyed
by attribute name. All values are validated first; if any value fails,
nothing is written.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := types.EntityRef{Type: args[0], ID: args[1]}

		values := make(map[string]any)
		if err := json.Unmarshal([]byte(args[2]), &values); err != nil {
			fail("set", fmt.Errorf("parse JSON: %w", err))
		}

		engine, err := attachEngine()
		if err != nil {
			fail("set", err)
		}
		defer engine.Detach()

		if err := engine.SetMany(ref, values); err != nil {
			fail("set", err)
		}

		result, err := engine.GetAll(ref)
		if err != nil {
			fail("set", err)
		}
		printJSON(result)
		return nil
	},
}

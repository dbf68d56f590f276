// Attrs command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var attrsCmd = &cobra.Command{
	Use:   "attrs",
	Short: "List all attribute definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := attachEngine()
		if err != nil {
			fail("attrs", err)
		}
		defer engine.Detach()

		defs, err := engine.Attributes()
		if err != nil {
			fail("attrs", err)
		}

		if flagJSON {
			printJSON(defs)
			return nil
		}
		for _, def := range defs {
			required := ""
			if def.Required {
				required = " required"
			}
			fmt.Printf("%s\t%s%s\t%q\n", def.Name, def.Type, required, def.Label)
		}
		return nil
	},
}

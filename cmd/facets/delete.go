// Delete command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an attribute definition and all its stored values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := attachEngine()
		if err != nil {
			fail("delete", err)
		}
		defer engine.Detach()

		if err := engine.DeleteAttribute(args[0]); err != nil {
			fail("delete", err)
		}

		fmt.Printf("deleted attribute %q\n", args[0])
		return nil
	},
}

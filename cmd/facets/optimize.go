// Optimize command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Create advisory search indexes for the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := attachEngine()
		if err != nil {
			fail("optimize", err)
		}
		defer engine.Detach()

		if err := engine.Optimize(); err != nil {
			fail("optimize", err)
		}

		fmt.Println("optimization complete")
		return nil
	},
}

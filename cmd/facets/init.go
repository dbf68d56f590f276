// Init command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the attribute store",
	Long:  `Initialize the storage backend: create directories, bootstrap the schema, and probe backend capabilities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := attachEngine()
		if err != nil {
			fail("init", err)
		}
		defer engine.Detach()

		fmt.Println("Facets store initialized successfully")
		return nil
	},
}

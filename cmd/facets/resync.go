// Resync command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagBatchSize int

var resyncCmd = &cobra.Command{
	Use:   "resync <entity-type>",
	Short: "Rebuild cache documents for every entity of a type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := attachEngine()
		if err != nil {
			fail("resync", err)
		}
		defer engine.Detach()

		processed, err := engine.Resync(args[0], flagBatchSize)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "resync stopped after %d entities\n", processed)
			fail("resync", err)
		}

		fmt.Printf("resynced %d entities of type %q\n", processed, args[0])
		return nil
	},
}

func init() {
	resyncCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "entities per transaction (0 uses the default)")
}

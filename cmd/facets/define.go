// Define command for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var (
	flagRequired bool
	flagOptions  []string
	flagRules    []string
)

var defineCmd = &cobra.Command{
	Use:   "define <name> <label> <type>",
	Short: "Register a new attribute definition",
	Long: `Register a new attribute definition in the catalog.

Types: text, number, date, boolean, select. Select attributes require at
least one --option. Rules are type-specific key=value pairs, for example
--rule min=0 --rule max=120 for numbers or --rule before=today for dates.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := parseRules(flagRules)
		if err != nil {
			fail("define", err)
		}

		engine, err := attachEngine()
		if err != nil {
			fail("define", err)
		}
		defer engine.Detach()

		def, err := engine.Define(types.AttributeDefinition{
			Name:     args[0],
			Label:    args[1],
			Type:     args[2],
			Required: flagRequired,
			Options:  flagOptions,
			Rules:    rules,
		})
		if err != nil {
			fail("define", err)
		}

		printJSON(def)
		return nil
	},
}

func init() {
	defineCmd.Flags().BoolVar(&flagRequired, "required", false, "reject empty values for this attribute")
	defineCmd.Flags().StringArrayVar(&flagOptions, "option", nil, "allowed value for select attributes (repeatable)")
	defineCmd.Flags().StringArrayVar(&flagRules, "rule", nil, "validation rule as key=value (repeatable)")
}

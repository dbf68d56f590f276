// Search command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var (
	flagLogic   string
	flagOrderBy string
	flagDesc    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <entity-type> <filter-json>",
	Short: "Find entity ids matching attribute filters",
	Long: `Find entity ids matching a JSON filter document. A plain value matches
with equality; an object with an "operator" key builds an explicit
condition:

  facets search contact '{"level": "manager"}'
  facets search contact '{"age": {"operator": ">", "value": 30}}'
  facets search contact '{"age": {"operator": "BETWEEN", "min": 20, "max": 40}}'
  facets search contact '{"nickname": {"operator": "NULL"}}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(args[1])
		if err != nil {
			fail("search", err)
		}
		logic := types.LogicAnd
		if flagLogic != "" {
			logic = flagLogic
		}

		engine, err := attachEngine()
		if err != nil {
			fail("search", err)
		}
		defer engine.Detach()

		var ids []string
		if flagOrderBy != "" {
			if logic != types.LogicAnd {
				fail("search", fmt.Errorf("%w: --order-by supports AND logic only", types.ErrInvalidLogic))
			}
			ids, err = engine.SearchOrdered(args[0], filter, flagOrderBy, flagDesc)
		} else {
			ids, err = engine.AdvancedSearch(args[0], filter, logic)
		}
		if err != nil {
			fail("search", err)
		}

		if flagJSON {
			printJSON(ids)
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagLogic, "logic", "", `combine filters with "AND" (default) or "OR"`)
	searchCmd.Flags().StringVar(&flagOrderBy, "order-by", "", "attribute name to order results by")
	searchCmd.Flags().BoolVar(&flagDesc, "desc", false, "order descending")
}

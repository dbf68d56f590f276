// Package main provides the facets CLI, a thin operational surface over the
// custom-attribute engine: catalog management, value reads and writes,
// search, cache resync, and index optimization.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

// Root command for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/paths"
	"github.com/mesh-intelligence/facets/pkg/facets"
)

// Exit codes: 0 success, 1 user error, 2 system error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Config values loaded from config.yaml. Set by PersistentPreRunE so all
// subcommands can use them.
var (
	configDriver      string
	configDSN         string
	configDataDir     string
	configCachedTypes []string
)

var rootCmd = &cobra.Command{
	Use:     "facets",
	Short:   "Facets is a typed custom-attribute store",
	Version: facets.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDriver = cfg.GetString(cfgKeyDriver)
		configDSN = cfg.GetString(cfgKeyDSN)
		configDataDir = cfg.GetString(cfgKeyDataDir)
		configCachedTypes = cfg.GetStringSlice(cfgKeyCachedTypes)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.facets)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.facets-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log engine internals to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(defineCmd)
	rootCmd.AddCommand(attrsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(optimizeCmd)
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > FACETS_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > FACETS_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

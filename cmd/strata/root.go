package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strataform/strata/internal/cli"
	"github.com/strataform/strata/pkg/model"
	"github.com/strataform/strata/pkg/snapshot"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile string
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Domain models compiled to SQL schemas and row-level security",
	Long: `strata - model-driven schema and access control

Strata compiles one domain-model snapshot into everything the database needs
to enforce it: DDL migrations diffed against the previous snapshot, and
row-level-security policies compiled from declared access rules.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupModel    = "model"
	groupDatabase = "database"
	groupUtility  = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover strata.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupModel, Title: "Model:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	validateCmd.GroupID = groupModel
	diffCmd.GroupID = groupModel
	policiesCmd.GroupID = groupModel
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(policiesCmd)

	migrateCmd.GroupID = groupDatabase
	rootCmd.AddCommand(migrateCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}

// loadModels loads, normalizes, and validates the current model snapshot.
func loadModels(path string) ([]model.Definition, error) {
	raw, err := snapshot.Load(path)
	if err != nil {
		return nil, cli.CompileError(fmt.Sprintf("loading snapshot %s", path), err)
	}
	models := model.Normalize(raw)
	if err := model.Validate(models); err != nil {
		return nil, cli.CompileError("invalid model snapshot", err)
	}
	return models, nil
}

// loadPreviousModels loads the last applied snapshot; a missing file means a
// first migration against an empty schema.
func loadPreviousModels(path string) ([]model.Definition, error) {
	raw, err := snapshot.LoadOptional(path)
	if err != nil {
		return nil, cli.CompileError(fmt.Sprintf("loading snapshot %s", path), err)
	}
	return raw, nil
}

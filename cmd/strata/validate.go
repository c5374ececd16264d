package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateSnapshot string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a model snapshot",
	Long:  `Validate a model snapshot: primary keys, relation targets, policy declarations, and relation-graph acyclicity.`,
	Example: `  # Validate a specific snapshot
  strata validate --snapshot strata/models.yaml

  # Validate using config file settings
  strata validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(validateSnapshot, cfg.Snapshot.Current)

		models, err := loadModels(path)
		if err != nil {
			return err
		}

		if !quiet {
			fmt.Printf("Snapshot is valid. Found %d models:\n", len(models))
			for i := range models {
				m := &models[i]
				fmt.Printf("  - %s -> %s (%d columns, %d relations, %d rules)\n",
					m.Name, m.TableName(), len(m.Schema), len(m.Relations),
					len(m.Policies)+len(m.Permissions))
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSnapshot, "snapshot", "", "path to the model snapshot")
}

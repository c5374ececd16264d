package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strataform/strata/internal/cli"
	"github.com/strataform/strata/internal/sqlgen"
	"github.com/strataform/strata/pkg/migrate"
)

var (
	policiesSnapshot string
	policiesOut      string
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Compile row-level-security policies",
	Long:  `Compile every declared policy and permission rule into row-level-security SQL for the configured dialect.`,
	Example: `  # Print the policy document
  strata policies

  # Write it to a file
  strata policies --out strata/policies.sql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(policiesSnapshot, cfg.Snapshot.Current)

		models, err := loadModels(path)
		if err != nil {
			return err
		}

		dialect, err := migrate.For(cfg.Dialect)
		if err != nil {
			return cli.ConfigError("selecting dialect", err)
		}
		prefix := migrate.SchemaPrefixer(dialect, cfg.SchemaPrefix())

		comp := sqlgen.NewCompilation(models, cfg.MultiTenant)
		doc, err := comp.GenerateRLS(sqlgen.Prefixer(prefix))
		if err != nil {
			return cli.CompileError("compiling policies", err)
		}

		if policiesOut != "" {
			if err := os.WriteFile(policiesOut, []byte(doc), 0o644); err != nil {
				return cli.GeneralError("writing policy document", err)
			}
			if !quiet {
				fmt.Printf("Wrote %s\n", policiesOut)
			}
			return nil
		}

		fmt.Print(doc)
		return nil
	},
}

func init() {
	f := policiesCmd.Flags()
	f.StringVar(&policiesSnapshot, "snapshot", "", "path to the model snapshot")
	f.StringVar(&policiesOut, "out", "", "write the policy SQL to a file instead of stdout")
}

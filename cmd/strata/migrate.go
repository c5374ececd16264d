package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/strataform/strata/internal/cli"
	"github.com/strataform/strata/internal/logger"
	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/migrate"
	"github.com/strataform/strata/pkg/migrator"
	"github.com/strataform/strata/pkg/snapshot"
)

var (
	migrateDB          string
	migrateDryRun      bool
	migrateForce       bool
	migrateWrite       bool
	migrateDestructive bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Render and apply the pending migration",
	Long: `Diff the current snapshot against the previously applied one, render the
migration for the configured dialect, and apply it to the database. On
success the previous-snapshot lock file is updated so the next diff starts
from the applied state.`,
	Example: `  # Apply pending changes
  strata migrate --db postgres://localhost/appdb

  # Preview the SQL without applying
  strata migrate --dry-run

  # Allow destructive statements to execute
  strata migrate --allow-destructive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(os.Stderr, verbose)

		current, err := loadModels(cfg.Snapshot.Current)
		if err != nil {
			return err
		}
		previous, err := loadPreviousModels(cfg.Snapshot.Previous)
		if err != nil {
			return err
		}

		dialect, err := migrate.For(cfg.Dialect)
		if err != nil {
			return cli.ConfigError("selecting dialect", err)
		}

		res := diff.Diff(previous, current, diff.Options{Dialect: cfg.Dialect})
		doc := migrate.Render(dialect, res, migrate.RenderOptions{
			AllowDestructive: resolveBool(migrateDestructive, cfg.AllowDestructive),
			Schema:           cfg.SchemaPrefix(),
			Timestamp:        time.Now(),
		})

		if doc.Empty() {
			if !quiet {
				fmt.Println("Nothing to migrate.")
			}
			return nil
		}
		log.Debug().Str("migration", doc.Name).
			Int("statements", len(doc.Statements)).
			Int("warnings", len(doc.Warnings)).
			Msg("rendered migration")

		if migrateWrite {
			if err := writeMigration(doc); err != nil {
				return err
			}
		}

		if migrateDryRun {
			fmt.Print(doc.SQL())
			return nil
		}

		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}
		db, err := migrator.Open(cfg.Dialect, dsn)
		if err != nil {
			return cli.DatabaseError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()

		ctx := context.Background()
		applied, err := migrator.New(db).Apply(ctx, doc, migrator.Options{Force: migrateForce})
		if err != nil {
			return cli.DatabaseError(fmt.Sprintf("applying %s", doc.Name), err)
		}
		if !applied {
			if !quiet {
				fmt.Println("Migration unchanged, skipped.")
			}
			return nil
		}

		// Lock in the applied state so the next diff starts from it.
		if err := snapshot.Save(cfg.Snapshot.Previous, current); err != nil {
			return cli.GeneralError("updating previous snapshot", err)
		}

		log.Info().Str("migration", doc.Name).Msg("applied")
		if !quiet {
			fmt.Printf("Applied %s (%d statements)\n", doc.Name, len(doc.Statements))
			for _, w := range doc.Warnings {
				fmt.Println("  warning:", w)
			}
		}
		return nil
	},
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateDB, "db", "", "database URL")
	f.BoolVar(&migrateDryRun, "dry-run", false, "print migration SQL without applying")
	f.BoolVar(&migrateForce, "force", false, "apply even if the migration checksum is unchanged")
	f.BoolVar(&migrateWrite, "write", false, "write the migration document into the migrations directory")
	f.BoolVar(&migrateDestructive, "allow-destructive", false, "render destructive operations as executable SQL")
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	return dsn, nil
}

func writeMigration(doc migrate.Document) error {
	if err := os.MkdirAll(cfg.Migrations, 0o755); err != nil {
		return cli.GeneralError("creating migrations directory", err)
	}
	path := filepath.Join(cfg.Migrations, doc.Name)
	if err := os.WriteFile(path, []byte(doc.SQL()), 0o644); err != nil {
		return cli.GeneralError("writing migration document", err)
	}
	if !quiet {
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

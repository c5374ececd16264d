package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/strataform/strata/pkg/diff"
)

var (
	diffJSON     bool
	diffCurrent  string
	diffPrevious string
)

// Diff display styles: additions green, removals red, everything else that
// mutates in place yellow.
var (
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dropStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	changeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show schema changes between snapshots",
	Long:  `Diff the current model snapshot against the previously applied one and show the resulting schema operations.`,
	Example: `  # Show pending schema changes
  strata diff

  # Emit the structured diff for tooling
  strata diff --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		currentPath := resolveString(diffCurrent, cfg.Snapshot.Current)
		previousPath := resolveString(diffPrevious, cfg.Snapshot.Previous)

		current, err := loadModels(currentPath)
		if err != nil {
			return err
		}
		previous, err := loadPreviousModels(previousPath)
		if err != nil {
			return err
		}

		res := diff.Diff(previous, current, diff.Options{Dialect: cfg.Dialect})

		if diffJSON {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if res.Empty() {
			if !quiet {
				fmt.Println("No schema changes.")
			}
			return nil
		}

		for _, op := range res.Operations {
			fmt.Println(renderOp(op))
		}
		for _, w := range res.Warnings {
			fmt.Println(dimStyle.Render("! " + w))
		}
		return nil
	},
}

func init() {
	f := diffCmd.Flags()
	f.BoolVar(&diffJSON, "json", false, "emit the structured diff as JSON")
	f.StringVar(&diffCurrent, "snapshot", "", "path to the current model snapshot")
	f.StringVar(&diffPrevious, "previous", "", "path to the previously applied snapshot")
}

// renderOp formats one operation as a marked, styled diff line.
func renderOp(op diff.Operation) string {
	switch op.Kind {
	case diff.OpAddTable:
		return addStyle.Render(fmt.Sprintf("+ table %s (%d columns)", op.Table, len(op.TableDef.Columns)))
	case diff.OpDropTable:
		return dropStyle.Render("- table " + op.Table)
	case diff.OpRenameTable:
		return changeStyle.Render(fmt.Sprintf("~ table %s -> %s", op.Table, op.NewName))
	case diff.OpAddColumn:
		return addStyle.Render(fmt.Sprintf("+ column %s.%s %s", op.Table, op.Column.Name, op.Column.Type))
	case diff.OpDropColumn:
		return dropStyle.Render(fmt.Sprintf("- column %s.%s", op.Table, op.ColumnName))
	case diff.OpRenameColumn:
		return changeStyle.Render(fmt.Sprintf("~ column %s.%s -> %s", op.Table, op.ColumnName, op.NewName))
	case diff.OpAlterColumnType:
		return changeStyle.Render(fmt.Sprintf("~ column %s.%s type %s -> %s", op.Table, op.Column.Name, op.FromType, op.Column.Type))
	case diff.OpAlterNullable:
		verb := "not null"
		if op.Column.Nullable {
			verb = "nullable"
		}
		return changeStyle.Render(fmt.Sprintf("~ column %s.%s %s", op.Table, op.Column.Name, verb))
	case diff.OpAlterDefault:
		if op.Column.Default == "" {
			return changeStyle.Render(fmt.Sprintf("~ column %s.%s drop default", op.Table, op.Column.Name))
		}
		return changeStyle.Render(fmt.Sprintf("~ column %s.%s default %s", op.Table, op.Column.Name, op.Column.Default))
	case diff.OpAddForeignKey:
		return addStyle.Render(fmt.Sprintf("+ fk %s.%s -> %s.%s", op.Table, op.ForeignKey.Column, op.ForeignKey.RefTable, op.ForeignKey.RefColumn))
	case diff.OpDropForeignKey:
		return dropStyle.Render(fmt.Sprintf("- fk %s.%s", op.Table, op.ForeignKey.Column))
	case diff.OpAlterForeignKey:
		return changeStyle.Render(fmt.Sprintf("~ fk %s.%s -> %s.%s", op.Table, op.ForeignKey.Column, op.ForeignKey.RefTable, op.ForeignKey.RefColumn))
	}
	return string(op.Kind) + " " + op.Table
}

package migrate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/strataform/strata/pkg/diff"
)

// RenderOptions controls document assembly. The timestamp is caller-supplied
// so rendering stays a pure function of its inputs.
type RenderOptions struct {
	AllowDestructive bool
	Schema           string
	Timestamp        time.Time
	Label            string
}

// Document is one rendered migration: a sortable name, the warning comments
// for operations that were skipped, and the executable statements in
// canonical order.
type Document struct {
	Name       string
	Warnings   []string
	Statements []string
}

// Empty reports whether the document has nothing to say at all.
func (d Document) Empty() bool {
	return len(d.Warnings) == 0 && len(d.Statements) == 0
}

// SQL renders the document body: warning comments first, then statements,
// one blank line between statements.
func (d Document) SQL() string {
	var parts []string
	for _, w := range d.Warnings {
		parts = append(parts, "-- WARNING: "+w)
	}
	if len(d.Warnings) > 0 && len(d.Statements) > 0 {
		parts = append(parts, "")
	}
	parts = append(parts, strings.Join(d.Statements, "\n\n"))
	return strings.TrimRight(strings.Join(parts, "\n"), "\n") + "\n"
}

// Render assembles a migration document from a diff result.
//
// Operations are ordered canonically before rendering: renames first so
// later statements address current names, then creations and additions,
// then alterations, drops last. Within one kind, operations sort by table
// and object name. Identical inputs therefore always produce byte-identical
// documents.
//
// Destructive operations render as executable SQL only when
// AllowDestructive is set; otherwise each becomes a warning comment and
// every non-destructive operation still renders.
func Render(d Dialect, res diff.Result, opts RenderOptions) Document {
	label := opts.Label
	if label == "" {
		label = "migration"
	}
	doc := Document{
		Name: fmt.Sprintf("%s_%s.sql", opts.Timestamp.UTC().Format("20060102150405"), label),
	}

	prefix := SchemaPrefixer(d, opts.Schema)

	ops := make([]diff.Operation, len(res.Operations))
	copy(ops, res.Operations)
	sort.SliceStable(ops, func(i, j int) bool {
		if a, b := kindRank(ops[i].Kind), kindRank(ops[j].Kind); a != b {
			return a < b
		}
		if ops[i].Table != ops[j].Table {
			return ops[i].Table < ops[j].Table
		}
		return opObject(ops[i]) < opObject(ops[j])
	})

	for _, op := range ops {
		if Destructive(op) && !opts.AllowDestructive {
			doc.Warnings = append(doc.Warnings,
				fmt.Sprintf("skipped destructive change: %s (set allow_destructive to apply)", describeOp(op)))
			continue
		}
		stmt, ok := d.Render(op, prefix)
		if !ok {
			doc.Warnings = append(doc.Warnings,
				fmt.Sprintf("%s cannot be expressed on %s; apply it manually", describeOp(op), d.Name()))
			continue
		}
		doc.Statements = append(doc.Statements, stmt)
	}

	return doc
}

// kindRank fixes the canonical statement order.
func kindRank(k diff.OpKind) int {
	switch k {
	case diff.OpRenameTable:
		return 0
	case diff.OpRenameColumn:
		return 1
	case diff.OpAddTable:
		return 2
	case diff.OpAddColumn:
		return 3
	case diff.OpAlterColumnType:
		return 4
	case diff.OpAlterNullable:
		return 5
	case diff.OpAlterDefault:
		return 6
	case diff.OpAddForeignKey:
		return 7
	case diff.OpAlterForeignKey:
		return 8
	case diff.OpDropForeignKey:
		return 9
	case diff.OpDropColumn:
		return 10
	case diff.OpDropTable:
		return 11
	}
	return 12
}

// opObject is the secondary sort key: the name of the thing the operation
// touches within its table.
func opObject(op diff.Operation) string {
	switch {
	case op.ColumnName != "":
		return op.ColumnName
	case op.Column != nil:
		return op.Column.Name
	case op.ForeignKey != nil:
		return op.ForeignKey.Column
	}
	return op.NewName
}

// describeOp renders an operation for warning text.
func describeOp(op diff.Operation) string {
	switch op.Kind {
	case diff.OpDropTable:
		return fmt.Sprintf("drop table %q", op.Table)
	case diff.OpDropColumn:
		return fmt.Sprintf("drop column %q.%q", op.Table, op.ColumnName)
	case diff.OpDropForeignKey:
		return fmt.Sprintf("drop foreign key %q.%q", op.Table, op.ForeignKey.Column)
	case diff.OpAlterColumnType:
		return fmt.Sprintf("alter column type %q.%q (%s to %s)", op.Table, op.Column.Name, op.FromType, op.Column.Type)
	case diff.OpAlterNullable:
		return fmt.Sprintf("alter nullability of %q.%q", op.Table, op.Column.Name)
	case diff.OpAlterDefault:
		return fmt.Sprintf("alter default of %q.%q", op.Table, op.Column.Name)
	case diff.OpAddForeignKey:
		return fmt.Sprintf("add foreign key %q.%q", op.Table, op.ForeignKey.Column)
	case diff.OpAlterForeignKey:
		return fmt.Sprintf("alter foreign key %q.%q", op.Table, op.ForeignKey.Column)
	}
	return fmt.Sprintf("%s on %q", op.Kind, op.Table)
}

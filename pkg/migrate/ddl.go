package migrate

import (
	"strings"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/model"
)

// columnDDL renders one column definition for CREATE TABLE and ADD COLUMN.
// uuidDefault, when non-empty, is applied to uuid primary keys that declare
// no default of their own.
func columnDDL(d Dialect, c diff.Column, uuidDefault string) string {
	parts := []string{d.QuoteIdent(c.Name), d.ColumnType(c.Type)}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else {
		if !c.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if c.Unique {
			parts = append(parts, "UNIQUE")
		}
	}

	def := c.Default
	if def == "" && c.PrimaryKey && c.Type == model.TypeUUID {
		def = uuidDefault
	}
	if def != "" {
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " ")
}

// createTableDDL renders a full CREATE TABLE from an addTable operation,
// foreign keys included, so a new table lands in one statement.
func createTableDDL(d Dialect, op diff.Operation, prefix Prefixer, uuidDefault string) string {
	var lines []string
	for _, c := range op.TableDef.Columns {
		lines = append(lines, "  "+columnDDL(d, c, uuidDefault))
	}
	for _, fk := range op.TableDef.ForeignKeys {
		lines = append(lines, "  "+foreignKeyClause(d, op.Table, fk, prefix))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(prefix(op.Table))
	b.WriteString(" (\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")
	return b.String()
}

// foreignKeyClause renders the CONSTRAINT ... FOREIGN KEY clause shared by
// CREATE TABLE and ALTER TABLE ADD CONSTRAINT.
func foreignKeyClause(d Dialect, table string, fk diff.ForeignKey, prefix Prefixer) string {
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(constraintName(table, fk.Column))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(d.QuoteIdent(fk.Column))
	b.WriteString(") REFERENCES ")
	b.WriteString(prefix(fk.RefTable))
	b.WriteString(" (")
	b.WriteString(d.QuoteIdent(fk.RefColumn))
	b.WriteString(")")
	if action := onDeleteSQL(fk.OnDelete); action != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(action)
	}
	return b.String()
}

// onDeleteSQL maps the DSL-level onDelete value to SQL referential actions.
func onDeleteSQL(v string) string {
	switch v {
	case "":
		return ""
	case "cascade":
		return "CASCADE"
	case "restrict":
		return "RESTRICT"
	case "setNull":
		return "SET NULL"
	case "noAction":
		return "NO ACTION"
	}
	return strings.ToUpper(v)
}

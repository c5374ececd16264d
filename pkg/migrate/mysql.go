package migrate

import (
	"fmt"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/model"
)

// MySQL renders DDL for MySQL 8.0+, which is the floor for RENAME COLUMN
// and expression defaults like (uuid()).
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(name string) string { return "`" + name + "`" }

func (MySQL) ColumnType(t model.FieldType) string {
	switch t {
	case model.TypeUUID:
		return "char(36)"
	case model.TypeString:
		return "varchar(255)"
	case model.TypeText:
		return "text"
	case model.TypeInteger:
		return "bigint"
	case model.TypeBoolean:
		return "tinyint(1)"
	case model.TypeDateTime:
		return "datetime(6)"
	case model.TypeJSON:
		return "json"
	}
	return string(t)
}

func (m MySQL) Render(op diff.Operation, prefix Prefixer) (string, bool) {
	if prefix == nil {
		prefix = IdentityPrefixer(m)
	}

	switch op.Kind {
	case diff.OpAddTable:
		return createTableDDL(m, op, prefix, "(uuid())"), true

	case diff.OpDropTable:
		return fmt.Sprintf("DROP TABLE %s;", prefix(op.Table)), true

	case diff.OpRenameTable:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", prefix(op.Table), m.QuoteIdent(op.NewName)), true

	case diff.OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
			prefix(op.Table), columnDDL(m, *op.Column, "(uuid())")), true

	case diff.OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", prefix(op.Table), m.QuoteIdent(op.ColumnName)), true

	case diff.OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
			prefix(op.Table), m.QuoteIdent(op.ColumnName), m.QuoteIdent(op.NewName)), true

	case diff.OpAlterColumnType, diff.OpAlterNullable:
		// MODIFY COLUMN restates the whole definition, so both alterations
		// share one form built from the desired column state.
		return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
			prefix(op.Table), m.modifyColumnDDL(*op.Column)), true

	case diff.OpAlterDefault:
		if op.Column.Default == "" {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;",
				prefix(op.Table), m.QuoteIdent(op.Column.Name)), true
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;",
			prefix(op.Table), m.QuoteIdent(op.Column.Name), op.Column.Default), true

	case diff.OpAddForeignKey:
		return fmt.Sprintf("ALTER TABLE %s ADD %s;",
			prefix(op.Table), foreignKeyClause(m, op.Table, *op.ForeignKey, prefix)), true

	case diff.OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;",
			prefix(op.Table), constraintName(op.Table, op.ForeignKey.Column)), true

	case diff.OpAlterForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;\nALTER TABLE %s ADD %s;",
			prefix(op.Table), constraintName(op.Table, op.ForeignKey.Column),
			prefix(op.Table), foreignKeyClause(m, op.Table, *op.ForeignKey, prefix)), true
	}

	return "", false
}

// modifyColumnDDL renders the column definition for MODIFY COLUMN without
// touching its default; default changes are separate operations.
func (m MySQL) modifyColumnDDL(c diff.Column) string {
	null := "NOT NULL"
	if c.Nullable {
		null = "NULL"
	}
	return fmt.Sprintf("%s %s %s", m.QuoteIdent(c.Name), m.ColumnType(c.Type), null)
}

package migrate

import (
	"fmt"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/model"
)

// Postgres renders DDL for PostgreSQL 13+. gen_random_uuid is built in from
// 13 onward, so uuid primary keys need no extension.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(name string) string { return `"` + name + `"` }

func (Postgres) ColumnType(t model.FieldType) string {
	switch t {
	case model.TypeUUID:
		return "uuid"
	case model.TypeString:
		return "varchar(255)"
	case model.TypeText:
		return "text"
	case model.TypeInteger:
		return "bigint"
	case model.TypeBoolean:
		return "boolean"
	case model.TypeDateTime:
		return "timestamptz"
	case model.TypeJSON:
		return "jsonb"
	}
	return string(t)
}

func (p Postgres) Render(op diff.Operation, prefix Prefixer) (string, bool) {
	if prefix == nil {
		prefix = IdentityPrefixer(p)
	}

	switch op.Kind {
	case diff.OpAddTable:
		return createTableDDL(p, op, prefix, "gen_random_uuid()"), true

	case diff.OpDropTable:
		return fmt.Sprintf("DROP TABLE %s;", prefix(op.Table)), true

	case diff.OpRenameTable:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", prefix(op.Table), p.QuoteIdent(op.NewName)), true

	case diff.OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
			prefix(op.Table), columnDDL(p, *op.Column, "gen_random_uuid()")), true

	case diff.OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", prefix(op.Table), p.QuoteIdent(op.ColumnName)), true

	case diff.OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
			prefix(op.Table), p.QuoteIdent(op.ColumnName), p.QuoteIdent(op.NewName)), true

	case diff.OpAlterColumnType:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;",
			prefix(op.Table), p.QuoteIdent(op.Column.Name), p.ColumnType(op.Column.Type)), true

	case diff.OpAlterNullable:
		verb := "SET"
		if op.Column.Nullable {
			verb = "DROP"
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s NOT NULL;",
			prefix(op.Table), p.QuoteIdent(op.Column.Name), verb), true

	case diff.OpAlterDefault:
		if op.Column.Default == "" {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;",
				prefix(op.Table), p.QuoteIdent(op.Column.Name)), true
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;",
			prefix(op.Table), p.QuoteIdent(op.Column.Name), op.Column.Default), true

	case diff.OpAddForeignKey:
		return fmt.Sprintf("ALTER TABLE %s ADD %s;",
			prefix(op.Table), foreignKeyClause(p, op.Table, *op.ForeignKey, prefix)), true

	case diff.OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			prefix(op.Table), constraintName(op.Table, op.ForeignKey.Column)), true

	case diff.OpAlterForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;\nALTER TABLE %s ADD %s;",
			prefix(op.Table), constraintName(op.Table, op.ForeignKey.Column),
			prefix(op.Table), foreignKeyClause(p, op.Table, *op.ForeignKey, prefix)), true
	}

	return "", false
}

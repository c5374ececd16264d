package migrate

import (
	"fmt"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/model"
)

// SQLite renders DDL for SQLite 3.35+, the floor for DROP COLUMN.
//
// SQLite's ALTER TABLE cannot change a column's type, nullability, or
// default, nor touch constraints on an existing table; those operations need
// a table rebuild and therefore do not render here. Render reports them as
// unsupported and the document carries them as warnings instead.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdent(name string) string { return `"` + name + `"` }

func (SQLite) ColumnType(t model.FieldType) string {
	switch t {
	case model.TypeInteger, model.TypeBoolean:
		return "integer"
	case model.TypeUUID, model.TypeString, model.TypeText, model.TypeDateTime, model.TypeJSON:
		return "text"
	}
	return "text"
}

func (s SQLite) Render(op diff.Operation, prefix Prefixer) (string, bool) {
	if prefix == nil {
		prefix = IdentityPrefixer(s)
	}

	switch op.Kind {
	case diff.OpAddTable:
		return createTableDDL(s, op, prefix, ""), true

	case diff.OpDropTable:
		return fmt.Sprintf("DROP TABLE %s;", prefix(op.Table)), true

	case diff.OpRenameTable:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", prefix(op.Table), s.QuoteIdent(op.NewName)), true

	case diff.OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
			prefix(op.Table), columnDDL(s, *op.Column, "")), true

	case diff.OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", prefix(op.Table), s.QuoteIdent(op.ColumnName)), true

	case diff.OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
			prefix(op.Table), s.QuoteIdent(op.ColumnName), s.QuoteIdent(op.NewName)), true
	}

	return "", false
}

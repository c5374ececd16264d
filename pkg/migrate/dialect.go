// Package migrate renders a diff operation set into an executable migration
// document for a target SQL dialect.
//
// The operation set itself is dialect-agnostic; a dialect decides only how
// each operation renders (or that it cannot render it at all). Destructive
// operations are gated behind an explicit opt-in and otherwise downgrade to
// warning comments, so the default mode can never lose data.
package migrate

import (
	"errors"
	"fmt"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/model"
)

var (
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrUnsupportedOperation is wrapped when a dialect cannot express an
	// operation as SQL at all (sqlite's ALTER limitations).
	ErrUnsupportedOperation = errors.New("operation not supported by dialect")
)

// IsUnknownDialectErr reports whether err means an unrecognized dialect name.
func IsUnknownDialectErr(err error) bool {
	return errors.Is(err, ErrUnknownDialect)
}

// Prefixer maps a bare table name to its quoted, optionally
// schema-qualified SQL identifier.
type Prefixer func(table string) string

// Dialect renders individual schema operations as SQL statements.
//
// Render returns the statement and true, or "" and false when the dialect
// cannot express the operation; the document renderer downgrades those to
// warning comments. Which operations exist never depends on the dialect.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	ColumnType(t model.FieldType) string
	Render(op diff.Operation, prefix Prefixer) (string, bool)
}

// For returns the dialect implementation for a config-level name.
func For(name string) (Dialect, error) {
	switch name {
	case "postgres":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite":
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("%w: %q (expected postgres, mysql, or sqlite)", ErrUnknownDialect, name)
}

// Destructive reports whether an operation can lose data or break referential
// integrity when applied. The classification is fixed across dialects.
func Destructive(op diff.Operation) bool {
	switch op.Kind {
	case diff.OpDropTable, diff.OpDropColumn, diff.OpDropForeignKey, diff.OpAlterColumnType:
		return true
	}
	return false
}

// IdentityPrefixer quotes table names with the dialect's identifier quoting
// and no schema qualification.
func IdentityPrefixer(d Dialect) Prefixer {
	return func(table string) string { return d.QuoteIdent(table) }
}

// SchemaPrefixer quotes table names under a named schema. MySQL treats the
// schema as a database qualifier; the quoting rules are the dialect's own.
func SchemaPrefixer(d Dialect, schema string) Prefixer {
	if schema == "" {
		return IdentityPrefixer(d)
	}
	return func(table string) string {
		return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
	}
}

// constraintName derives the deterministic name for a belongsTo constraint.
func constraintName(table, column string) string {
	return fmt.Sprintf("fk_%s_%s", table, column)
}

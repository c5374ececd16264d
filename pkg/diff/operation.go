// Package diff computes the schema operations that take a previous model
// snapshot to the current one.
//
// The differ emits a flat, dialect-agnostic operation set plus a warning
// list; it imposes no statement ordering and renders no SQL. Ordering,
// destructive-change gating, and dialect syntax belong to pkg/migrate.
package diff

import "github.com/strataform/strata/pkg/model"

// OpKind enumerates the closed set of schema operations.
type OpKind string

const (
	OpAddTable        OpKind = "addTable"
	OpDropTable       OpKind = "dropTable"
	OpRenameTable     OpKind = "renameTable"
	OpAddColumn       OpKind = "addColumn"
	OpDropColumn      OpKind = "dropColumn"
	OpRenameColumn    OpKind = "renameColumn"
	OpAlterColumnType OpKind = "alterColumnType"
	OpAlterNullable   OpKind = "alterNullability"
	OpAlterDefault    OpKind = "alterDefault"
	OpAddForeignKey   OpKind = "addForeignKey"
	OpDropForeignKey  OpKind = "dropForeignKey"
	OpAlterForeignKey OpKind = "alterForeignKey"
)

// Operation is one schema change. Kind selects which of the optional fields
// are meaningful:
//
//	addTable                   Table, TableDef
//	dropTable                  Table
//	renameTable                Table (old name), NewName
//	addColumn                  Table, Column
//	dropColumn                 Table, ColumnName
//	renameColumn               Table, ColumnName (old), NewName
//	alterColumnType            Table, Column (desired), FromType
//	alterNullability           Table, Column (desired)
//	alterDefault               Table, Column (desired)
//	add/drop/alterForeignKey   Table, ForeignKey
//
// The zero fields are omitted from JSON so the serialized diff stays small
// for CLI and UI display.
type Operation struct {
	Kind       OpKind          `json:"kind"`
	Table      string          `json:"table"`
	NewName    string          `json:"newName,omitempty"`
	ColumnName string          `json:"columnName,omitempty"`
	Column     *Column         `json:"column,omitempty"`
	TableDef   *Table          `json:"tableDef,omitempty"`
	ForeignKey *ForeignKey     `json:"foreignKey,omitempty"`
	FromType   model.FieldType `json:"fromType,omitempty"`
}

// Result is the differ's full output: the operation set and the
// human-readable warnings for every destructive change it found. The warning
// list is complete regardless of whether the renderer later executes or
// skips the destructive operations.
type Result struct {
	Operations []Operation `json:"operations"`
	Warnings   []string    `json:"warnings"`
}

// Empty reports whether the diff found no changes at all.
func (r Result) Empty() bool {
	return len(r.Operations) == 0 && len(r.Warnings) == 0
}

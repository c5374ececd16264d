package diff

import "github.com/strataform/strata/pkg/model"

// Column is the normalized, dialect-agnostic shape of one table column.
type Column struct {
	Name       string          `json:"name"`
	Type       model.FieldType `json:"type"`
	Nullable   bool            `json:"nullable,omitempty"`
	Default    string          `json:"default,omitempty"`
	PrimaryKey bool            `json:"primaryKey,omitempty"`
	Unique     bool            `json:"unique,omitempty"`
}

// ForeignKey is one belongsTo-derived constraint tuple. Identity for diffing
// is (table, Column, RefTable, RefColumn); OnDelete changes alone do not
// retarget a constraint.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"refTable"`
	RefColumn string `json:"refColumn"`
	OnDelete  string `json:"onDelete,omitempty"`
}

// Table is the normalized shape of one model: pluralized snake_case name,
// columns in declaration order, and belongsTo foreign keys.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

// Column returns the named column, if present.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NormalizeModels maps a snapshot to its table shapes. The input is
// normalized first, so synthesized belongsTo foreign-key columns are present
// whether or not the snapshot declared them. hasMany and manyToMany
// relations contribute no columns to the owning table; their storage lives
// on the target side or in a join table outside this snapshot.
func NormalizeModels(models []model.Definition) []Table {
	models = model.Normalize(models)

	tables := make([]Table, 0, len(models))
	for i := range models {
		m := &models[i]
		t := Table{Name: m.TableName()}

		for _, f := range m.Schema {
			t.Columns = append(t.Columns, Column{
				Name:       model.ColumnName(f.Name),
				Type:       f.Type,
				Nullable:   f.Optional,
				Default:    f.Default,
				PrimaryKey: f.PrimaryKey,
				Unique:     f.Unique,
			})
		}

		for _, rel := range m.Relations {
			if rel.Kind != model.BelongsTo {
				continue
			}
			refTable := model.TableName(rel.Target)
			refColumn := "id"
			if target, ok := model.Lookup(models, rel.Target); ok {
				if pk, ok := target.PrimaryKey(); ok {
					refColumn = model.ColumnName(pk.Name)
				}
			}
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Column:    model.ColumnName(rel.ForeignKey),
				RefTable:  refTable,
				RefColumn: refColumn,
				OnDelete:  rel.OnDelete,
			})
		}

		tables = append(tables, t)
	}
	return tables
}

// nativeType maps a semantic field type to the dialect's column-type class,
// used only for rename scoring. Full DDL type names live with the dialects
// in pkg/migrate; here only equality of the mapped class matters, so sqlite
// collapsing most types to text is exactly the point.
func nativeType(dialect string, t model.FieldType) string {
	switch dialect {
	case "mysql":
		switch t {
		case model.TypeUUID:
			return "char(36)"
		case model.TypeString:
			return "varchar"
		case model.TypeText:
			return "text"
		case model.TypeInteger:
			return "bigint"
		case model.TypeBoolean:
			return "tinyint"
		case model.TypeDateTime:
			return "datetime"
		case model.TypeJSON:
			return "json"
		}
	case "sqlite":
		switch t {
		case model.TypeInteger, model.TypeBoolean:
			return "integer"
		default:
			return "text"
		}
	default: // postgres
		switch t {
		case model.TypeUUID:
			return "uuid"
		case model.TypeString:
			return "varchar"
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
	}
	return string(t)
}

// Package model defines the in-memory domain-model representation that every
// strata artifact is derived from.
//
// This package contains the shared AST produced by the upstream DSL parser:
// model definitions with fields, relations, and declared policies and
// permission rules. It sits between the parser (out of scope for this module)
// and the two compilation pipelines that consume it:
//
//  1. The policy compiler (internal/sqlgen) - per-model-action SQL predicates
//  2. The schema differ and migration renderer (pkg/diff, pkg/migrate)
//
// Definitions are created once per compile and treated as immutable
// afterward. Normalize returns a normalized copy rather than mutating its
// input, so concurrent compilations over the same snapshot never interfere.
//
// # Validation
//
// Validate rejects malformed snapshots before any compilation proceeds:
//   - a model without exactly one primary-key field
//   - a cyclic belongsTo relation graph (self-references are exempt)
//   - a policy and a permission rule declared for the same (model, action)
//   - a permission rule naming an undeclared role, claim, or model
//
// Invalid snapshots are rejected with descriptive errors naming the model and
// field or relation involved; compilation never silently degrades.
package model

// FieldType is the closed set of semantic field types the DSL supports.
// Dialects map these to native column types at render time.
type FieldType string

const (
	TypeUUID     FieldType = "uuid"
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "datetime"
	TypeJSON     FieldType = "json"
)

// Field represents one declared field of a model.
// Name is the DSL-level camelCase name; the column name is derived from it
// via snake_case normalization (see ColumnName).
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	PrimaryKey bool      `json:"primaryKey,omitempty"`
	Tenant     bool      `json:"tenant,omitempty"`
	Optional   bool      `json:"optional,omitempty"`
	Unique     bool      `json:"unique,omitempty"`

	// Default is a raw SQL literal or expression emitted verbatim into DDL.
	Default string `json:"default,omitempty"`

	// Data-protection tags. Consumed by an external collaborator; opaque here.
	PII       bool   `json:"pii,omitempty"`
	Secret    bool   `json:"secret,omitempty"`
	Residency string `json:"residency,omitempty"`
}

// RelationKind is the closed set of relation kinds.
type RelationKind string

const (
	BelongsTo  RelationKind = "belongsTo"
	HasMany    RelationKind = "hasMany"
	ManyToMany RelationKind = "manyToMany"
)

// Relation represents a declared relation between two models.
type Relation struct {
	Name   string       `json:"name"`
	Kind   RelationKind `json:"kind"`
	Target string       `json:"target"`

	// ForeignKey is the DSL-level name of the foreign-key field. When the DSL
	// omits it, Normalize derives it: "<name>Id" for belongsTo, and
	// "<owningModel>Id" (lower camel) for hasMany.
	ForeignKey string `json:"foreignKey,omitempty"`

	// Through names the join table for manyToMany relations.
	Through string `json:"through,omitempty"`

	OnDelete string `json:"onDelete,omitempty"`
}

// Action identifies one of the four model operations a policy or permission
// rule can cover.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists all actions in declaration order, for deterministic output.
var Actions = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// PermissionRule combines role/claim membership with an optional ABAC
// condition. The condition source is compiled by internal/sqlgen.
type PermissionRule struct {
	Roles     []string `json:"roles,omitempty"`
	Claims    []string `json:"claims,omitempty"`
	Condition string   `json:"condition,omitempty"`
}

// Definition is one parsed model. Schema preserves field declaration order;
// DDL output depends on it for determinism.
type Definition struct {
	Name        string                    `json:"name"`
	Schema      []Field                   `json:"schema"`
	Relations   []Relation                `json:"relations,omitempty"`
	Policies    map[Action]string         `json:"policies,omitempty"`
	Permissions map[Action]PermissionRule `json:"permissions,omitempty"`
	Roles       []string                  `json:"roles,omitempty"`
	Claims      []string                  `json:"claims,omitempty"`
}

// Field returns the named field, if declared.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Schema {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation returns the named relation, if declared.
func (d *Definition) Relation(name string) (Relation, bool) {
	for _, r := range d.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// PrimaryKey returns the model's primary-key field.
// Validate guarantees exactly one exists.
func (d *Definition) PrimaryKey() (Field, bool) {
	for _, f := range d.Schema {
		if f.PrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// TenantField returns the model's tenant field, if declared.
func (d *Definition) TenantField() (Field, bool) {
	for _, f := range d.Schema {
		if f.Tenant {
			return f, true
		}
	}
	return Field{}, false
}

// HasRole reports whether the model declares the given role.
func (d *Definition) HasRole(role string) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasClaim reports whether the model declares the given claim path.
func (d *Definition) HasClaim(claim string) bool {
	for _, c := range d.Claims {
		if c == claim {
			return true
		}
	}
	return false
}

// Lookup finds a model by name in a snapshot.
func Lookup(models []Definition, name string) (*Definition, bool) {
	for i := range models {
		if models[i].Name == name {
			return &models[i], true
		}
	}
	return nil, false
}

package model

import "fmt"

// Normalize returns a copy of the snapshot with derived data filled in:
//
//   - belongsTo relations without a declared foreign key get "<name>Id"
//   - hasMany relations without a declared foreign key get
//     "<owningModel>Id" in lower camel (the column lives on the target model)
//   - belongsTo foreign-key fields absent from the owning model's schema are
//     synthesized, typed after the target model's primary key
//
// The input is never mutated. Callers should normalize once per compile and
// feed the result to every downstream consumer so all artifacts agree on the
// synthesized columns.
func Normalize(models []Definition) []Definition {
	out := make([]Definition, len(models))
	for i, m := range models {
		c := m
		c.Schema = append([]Field(nil), m.Schema...)
		c.Relations = append([]Relation(nil), m.Relations...)

		for j, rel := range c.Relations {
			switch rel.Kind {
			case BelongsTo:
				if rel.ForeignKey == "" {
					c.Relations[j].ForeignKey = rel.Name + "Id"
				}
			case HasMany:
				if rel.ForeignKey == "" {
					c.Relations[j].ForeignKey = LowerCamel(m.Name) + "Id"
				}
			}
		}

		// Synthesize belongsTo foreign-key fields the DSL omitted.
		for _, rel := range c.Relations {
			if rel.Kind != BelongsTo {
				continue
			}
			if _, ok := c.Field(c.mustForeignKey(rel.Name)); ok {
				continue
			}
			fkType := TypeUUID
			if target, ok := Lookup(models, rel.Target); ok {
				if pk, ok := target.PrimaryKey(); ok {
					fkType = pk.Type
				}
			}
			c.Schema = append(c.Schema, Field{
				Name:     c.mustForeignKey(rel.Name),
				Type:     fkType,
				Optional: false,
			})
		}

		out[i] = c
	}
	return out
}

func (d *Definition) mustForeignKey(relName string) string {
	rel, _ := d.Relation(relName)
	if rel.ForeignKey != "" {
		return rel.ForeignKey
	}
	return relName + "Id"
}

// Validate checks the invariants every snapshot must satisfy before
// compilation proceeds. Validate expects a normalized snapshot.
func Validate(models []Definition) error {
	for i := range models {
		m := &models[i]

		if err := validatePrimaryKey(m); err != nil {
			return err
		}

		for _, rel := range m.Relations {
			if _, ok := Lookup(models, rel.Target); !ok {
				return fmt.Errorf("%w: relation %s.%s targets %q",
					ErrUnknownModel, m.Name, rel.Name, rel.Target)
			}
		}

		for _, action := range Actions {
			_, hasPolicy := m.Policies[action]
			_, hasPerm := m.Permissions[action]
			if hasPolicy && hasPerm {
				return fmt.Errorf("%w: model %s declares both a policy and a permission rule for %q",
					ErrDuplicateRule, m.Name, action)
			}
		}

		for _, action := range Actions {
			rule, ok := m.Permissions[action]
			if !ok {
				continue
			}
			for _, role := range rule.Roles {
				if !m.HasRole(role) {
					return fmt.Errorf("%w: model %s action %q names role %q",
						ErrUndeclaredRole, m.Name, action, role)
				}
			}
			for _, claim := range rule.Claims {
				if !m.HasClaim(claim) {
					return fmt.Errorf("%w: model %s action %q names claim %q",
						ErrUndeclaredClaim, m.Name, action, claim)
				}
			}
		}
	}

	return DetectCycles(models)
}

func validatePrimaryKey(m *Definition) error {
	var pks []string
	for _, f := range m.Schema {
		if f.PrimaryKey {
			pks = append(pks, f.Name)
		}
	}
	switch len(pks) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: model %s has none", ErrMissingPrimaryKey, m.Name)
	default:
		return fmt.Errorf("%w: model %s declares %d (%v)",
			ErrMissingPrimaryKey, m.Name, len(pks), pks)
	}
}

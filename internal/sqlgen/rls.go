package sqlgen

import (
	"fmt"
	"strings"

	"github.com/strataform/strata/internal/sqlgen/sqldsl"
	"github.com/strataform/strata/pkg/model"
)

// Prefixer maps a table name to its schema-qualified, quoted form.
// A nil Prefixer leaves names untouched.
type Prefixer func(table string) string

// Policy is one generated row-level-security policy, with the predicate kept
// separate from the full statement for diff display and testing.
type Policy struct {
	Model     string       `json:"model"`
	Table     string       `json:"table"`
	Action    model.Action `json:"action"`
	Predicate string       `json:"predicate"`
	SQL       string       `json:"sql"`
}

// ActionPredicate compiles the effective predicate for one (model, action):
// the declared policy expression or permission rule, with tenant isolation
// ANDed in front when multitenancy is enabled and the model declares a
// tenant field.
//
// Actions with no declared rule default to tenant-only isolation, or to an
// unconditional allow when multitenancy is off. That is the deliberate safe
// default, not an omission: absent rules must never widen access beyond the
// tenant boundary.
func (c *Compilation) ActionPredicate(m *model.Definition, action model.Action) (string, error) {
	var base sqldsl.Expr

	if src, ok := m.Policies[action]; ok {
		compiled, err := c.compileConditionExpr(m, src)
		if err != nil {
			return "", fmt.Errorf("policy %s.%s: %w", m.Name, action, err)
		}
		base = compiled
	} else if rule, ok := m.Permissions[action]; ok {
		compiled, err := c.compileRule(m, rule)
		if err != nil {
			return "", fmt.Errorf("permission %s.%s: %w", m.Name, action, err)
		}
		base = compiled
	}

	var tenant sqldsl.Expr
	if c.multiTenant {
		if tf, ok := m.TenantField(); ok {
			tenant = tenantFilter("", model.ColumnName(tf.Name))
		}
	}

	switch {
	case tenant != nil && base != nil:
		return sqldsl.And(tenant, group(base)).SQL(), nil
	case tenant != nil:
		return tenant.SQL(), nil
	case base != nil:
		return base.SQL(), nil
	}
	return sqldsl.Bool(true).SQL(), nil
}

// GeneratePolicies compiles every (model, action) predicate in the snapshot
// into row-level-security policies, in model declaration order then action
// order, so output is deterministic.
func (c *Compilation) GeneratePolicies(prefix Prefixer) ([]Policy, error) {
	if prefix == nil {
		prefix = func(table string) string { return table }
	}

	var policies []Policy
	for i := range c.models {
		m := &c.models[i]
		table := m.TableName()

		for _, action := range model.Actions {
			pred, err := c.ActionPredicate(m, action)
			if err != nil {
				return nil, err
			}
			policies = append(policies, Policy{
				Model:     m.Name,
				Table:     table,
				Action:    action,
				Predicate: pred,
				SQL:       policyStatement(prefix(table), table, action, pred),
			})
		}
	}
	return policies, nil
}

// GenerateRLS renders the full row-level-security document: per table, an
// ENABLE ROW LEVEL SECURITY statement followed by one policy per action.
func (c *Compilation) GenerateRLS(prefix Prefixer) (string, error) {
	if prefix == nil {
		prefix = func(table string) string { return table }
	}

	policies, err := c.GeneratePolicies(prefix)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	lastTable := ""
	for _, p := range policies {
		if p.Table != lastTable {
			if lastTable != "" {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "ALTER TABLE %s ENABLE ROW LEVEL SECURITY;\n", prefix(p.Table))
			lastTable = p.Table
		}
		b.WriteString(p.SQL)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// policyStatement renders one CREATE POLICY statement. INSERT policies use
// WITH CHECK; the row does not exist yet, so USING has nothing to test.
func policyStatement(qualifiedTable, table string, action model.Action, predicate string) string {
	name := fmt.Sprintf("%s_%s", table, action)
	switch action {
	case model.ActionCreate:
		return fmt.Sprintf("CREATE POLICY %s ON %s FOR INSERT WITH CHECK (%s);", name, qualifiedTable, predicate)
	case model.ActionRead:
		return fmt.Sprintf("CREATE POLICY %s ON %s FOR SELECT USING (%s);", name, qualifiedTable, predicate)
	case model.ActionUpdate:
		return fmt.Sprintf("CREATE POLICY %s ON %s FOR UPDATE USING (%s);", name, qualifiedTable, predicate)
	case model.ActionDelete:
		return fmt.Sprintf("CREATE POLICY %s ON %s FOR DELETE USING (%s);", name, qualifiedTable, predicate)
	}
	return fmt.Sprintf("CREATE POLICY %s ON %s USING (%s);", name, qualifiedTable, predicate)
}

package sqlgen

import (
	"github.com/strataform/strata/internal/sqlgen/sqldsl"
	"github.com/strataform/strata/pkg/model"
)

// compileRule compiles one permission rule into
// (role-membership OR claim-membership) [AND (<ABAC predicate>)].
// Tenant isolation is prepended by the caller so declared policies and
// permission rules share one code path.
func (c *Compilation) compileRule(m *model.Definition, rule model.PermissionRule) (sqldsl.Expr, error) {
	var membership sqldsl.Expr

	var checks []sqldsl.Expr
	if len(rule.Roles) > 0 {
		checks = append(checks, sqldsl.FuncLits(roleCheckFunc, rule.Roles))
	}
	if len(rule.Claims) > 0 {
		checks = append(checks, sqldsl.FuncLits(claimCheckFunc, rule.Claims))
	}
	if len(checks) > 0 {
		membership = sqldsl.Or(checks...)
	}

	var abac sqldsl.Expr
	if rule.Condition != "" {
		compiled, err := c.compileConditionExpr(m, rule.Condition)
		if err != nil {
			return nil, err
		}
		abac = compiled
	}

	switch {
	case membership != nil && abac != nil:
		return sqldsl.And(membership, group(abac)), nil
	case membership != nil:
		return membership, nil
	case abac != nil:
		return abac, nil
	}

	// A rule with no roles, claims, or condition grants unconditionally.
	return sqldsl.Bool(true), nil
}

// group parenthesizes an expression unless its rendering already carries its
// own grouping.
func group(e sqldsl.Expr) sqldsl.Expr {
	switch v := e.(type) {
	case sqldsl.Paren, sqldsl.Exists, sqldsl.NotExists, sqldsl.Bool, sqldsl.Func:
		return e
	case sqldsl.AndExpr:
		if len(v.Exprs) > 1 {
			return e
		}
	case sqldsl.OrExpr:
		if len(v.Exprs) > 1 {
			return e
		}
	}
	return sqldsl.Paren{Expr: e}
}

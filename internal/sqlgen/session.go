package sqlgen

import "github.com/strataform/strata/internal/sqlgen/sqldsl"

// Session-context accessors. All runtime values enter generated predicates
// through these fixed expressions, evaluated by the database engine at query
// time; no untrusted runtime value is ever interpolated into SQL text.
const (
	// CurrentUserID resolves to the authenticated subject's id.
	CurrentUserID = "current_setting('strata.user_id', true)"

	// CurrentTenantID resolves to the caller's tenant id.
	CurrentTenantID = "current_setting('strata.tenant_id', true)"

	// CurrentRole resolves to the caller's active role.
	CurrentRole = "current_setting('strata.role', true)"
)

// Membership accessor functions. These are parameterized only by literal
// role/claim lists declared in the model, never by runtime values.
const (
	roleCheckFunc  = "strata_has_any_role"
	claimCheckFunc = "strata_has_any_claim"
)

// userAccessors maps user.<prop> chains to session accessors. Any other
// property on user is a compile error.
var userAccessors = map[string]string{
	"id":       CurrentUserID,
	"tenantId": CurrentTenantID,
	"role":     CurrentRole,
}

// tenantFilter builds the tenant-isolation comparison for a tenant column on
// the given alias ("" for the current table).
func tenantFilter(alias, tenantColumn string) sqldsl.Expr {
	return sqldsl.Eq{
		Left:  sqldsl.Col{Table: alias, Column: tenantColumn},
		Right: sqldsl.Raw(CurrentTenantID),
	}
}

package sqlgen

import "errors"

// Sentinel errors for policy compilation failures. All are hard errors: the
// compiler aborts rather than emitting partial SQL. Wrapped errors name the
// model and field or relation involved.
var (
	// ErrUnsupportedExpr is returned when a policy body falls outside the
	// supported expression subset and the literal fallback patterns.
	ErrUnsupportedExpr = errors.New("strata/sqlgen: unsupported policy expression")

	// ErrUnboundIdentifier is returned when a chain starts with a name the
	// current scope does not bind.
	ErrUnboundIdentifier = errors.New("strata/sqlgen: unbound identifier")

	// ErrUnknownProperty is returned when a chain references a field or
	// relation the model does not declare, or an unknown user.* accessor.
	ErrUnknownProperty = errors.New("strata/sqlgen: unknown property")

	// ErrHopDepth is returned when a relation traversal exceeds the hop cap.
	ErrHopDepth = errors.New("strata/sqlgen: relation traversal too deep")
)

// IsUnsupportedExprErr returns true if err is or wraps ErrUnsupportedExpr.
func IsUnsupportedExprErr(err error) bool {
	return errors.Is(err, ErrUnsupportedExpr)
}

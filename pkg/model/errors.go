package model

import "errors"

// Sentinel errors for snapshot validation failures. All of these are hard
// errors: compilation must abort rather than emit artifacts from a malformed
// model representation. Wrapped errors carry the model and field or relation
// names involved.
var (
	// ErrMissingPrimaryKey is returned when a model declares zero or more
	// than one primary-key field.
	ErrMissingPrimaryKey = errors.New("strata/model: model must declare exactly one primary key")

	// ErrCyclicRelations is returned when the belongsTo relation graph
	// contains a cycle across models. Self-references are exempt.
	ErrCyclicRelations = errors.New("strata/model: cyclic belongsTo relation graph")

	// ErrUnknownModel is returned when a relation targets an undeclared model.
	ErrUnknownModel = errors.New("strata/model: unknown model")

	// ErrDuplicateRule is returned when both a policy and a permission rule
	// are declared for the same (model, action).
	ErrDuplicateRule = errors.New("strata/model: duplicate access rule for action")

	// ErrUndeclaredRole is returned when a permission rule names a role the
	// model does not declare.
	ErrUndeclaredRole = errors.New("strata/model: permission rule names undeclared role")

	// ErrUndeclaredClaim is returned when a permission rule names a claim the
	// model does not declare.
	ErrUndeclaredClaim = errors.New("strata/model: permission rule names undeclared claim")
)

// IsCyclicRelationsErr returns true if err is or wraps ErrCyclicRelations.
func IsCyclicRelationsErr(err error) bool {
	return errors.Is(err, ErrCyclicRelations)
}

// IsMissingPrimaryKeyErr returns true if err is or wraps ErrMissingPrimaryKey.
func IsMissingPrimaryKeyErr(err error) bool {
	return errors.Is(err, ErrMissingPrimaryKey)
}

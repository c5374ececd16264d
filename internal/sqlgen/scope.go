package sqlgen

import "github.com/strataform/strata/pkg/model"

// binding associates a scope variable with the model it is bound to and the
// SQL alias its columns are read through. An empty alias means "refer to the
// current table's columns directly", which is how RLS predicates address the
// row under evaluation.
type binding struct {
	model *model.Definition
	alias string
}

// scope maps variable names visible in a policy body to their bindings.
// Scopes are ephemeral per-compilation values; extending one (for a
// quantifier callback) copies it so sibling subexpressions are unaffected.
type scope struct {
	vars map[string]binding
	user string // name of the session-context sentinel, normally "user"

	// depth counts join aliases already allocated by enclosing chains, so a
	// chain compiled inside a quantifier callback starts numbering past the
	// alias its correlation refers to.
	depth int
}

func newScope(owner *model.Definition) scope {
	return scope{
		vars: map[string]binding{"record": {model: owner}},
		user: "user",
	}
}

// lookup resolves a variable name. ok is false for unbound names.
func (s scope) lookup(name string) (binding, bool) {
	b, ok := s.vars[name]
	return b, ok
}

// isUser reports whether the name is the session-context sentinel.
func (s scope) isUser(name string) bool {
	return name == s.user
}

// with returns a copy of the scope extended with one binding. Rebinding the
// user sentinel shadows it, matching lexical scoping in the source language.
func (s scope) with(name string, b binding) scope {
	vars := make(map[string]binding, len(s.vars)+1)
	for k, v := range s.vars {
		vars[k] = v
	}
	vars[name] = b
	return scope{vars: vars, user: s.user, depth: s.depth}
}

// descend returns a copy of the scope with n more aliases accounted for.
func (s scope) descend(n int) scope {
	s.depth += n
	return s
}

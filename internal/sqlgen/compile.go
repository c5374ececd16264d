// Package sqlgen compiles strata policy and permission declarations into SQL
// predicates and assembles them into row-level-security statements.
//
// The compiler translates one boolean expression body at a time, given the
// owning model, the full model list (for cross-model relation resolution),
// and a variable scope. It emits text only; nothing here executes SQL.
//
// All state for one compile run lives in a Compilation value threaded through
// every call. There is no package-level registry, so concurrent compilations
// over different snapshots never interfere.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/strataform/strata/internal/sqlgen/sqldsl"
	"github.com/strataform/strata/pkg/expr"
	"github.com/strataform/strata/pkg/model"
)

// maxHopDepth caps relation traversal in a single chain. Exceeding it is a
// compile error, never a silent truncation.
const maxHopDepth = 3

// Compilation carries the inputs shared by every predicate compiled in one
// run: the normalized model list and the multitenancy flag. Values are
// immutable after construction.
type Compilation struct {
	models      []model.Definition
	multiTenant bool
}

// NewCompilation creates a compilation context over a normalized snapshot.
func NewCompilation(models []model.Definition, multiTenant bool) *Compilation {
	return &Compilation{models: models, multiTenant: multiTenant}
}

// CompileCondition translates one policy or ABAC condition body into a SQL
// boolean expression for the owning model. The scope is seeded with "record"
// (bound to owner, alias-less) and the "user" session sentinel; a top-level
// lambda wrapper binds its parameter as a further name for the row.
//
// Bodies that do not parse as structured expressions fall back to the
// literal forms true, false, and record.<field> == "<value>"; anything else
// is a hard error naming the model.
func (c *Compilation) CompileCondition(owner *model.Definition, src string) (string, error) {
	compiled, err := c.compileConditionExpr(owner, src)
	if err != nil {
		return "", err
	}
	return compiled.SQL(), nil
}

func (c *Compilation) compileConditionExpr(owner *model.Definition, src string) (sqldsl.Expr, error) {
	node, err := expr.Parse(src)
	if err != nil {
		return c.compileFallback(owner, src, err)
	}
	sc := newScope(owner)
	if lam, ok := node.(expr.Lambda); ok {
		// A top-level wrapper names the row under evaluation; its parameter
		// is an alias for record.
		sc = sc.with(lam.Param, binding{model: owner})
		node = lam.Body
	}
	return c.compileNode(sc, node)
}

// compileNode dispatches over the closed set of AST node kinds. Every arm
// either produces a SQL expression or fails with an error naming the model
// and member involved; no arm degrades to partial SQL.
func (c *Compilation) compileNode(sc scope, n expr.Node) (sqldsl.Expr, error) {
	switch v := n.(type) {
	case expr.BoolLit:
		return sqldsl.Bool(v.Value), nil

	case expr.NumberLit:
		return sqldsl.Raw(v.Text), nil

	case expr.StringLit:
		return sqldsl.Lit(v.Value), nil

	case expr.Binary:
		left, err := c.compileNode(sc, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compileNode(sc, v.Right)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case expr.OpAnd:
			return sqldsl.And(left, right), nil
		case expr.OpOr:
			return sqldsl.Or(left, right), nil
		case expr.OpEq:
			return sqldsl.Eq{Left: left, Right: right}, nil
		case expr.OpNe:
			return sqldsl.Ne{Left: left, Right: right}, nil
		case expr.OpLt:
			return sqldsl.Lt{Left: left, Right: right}, nil
		case expr.OpLte:
			return sqldsl.Lte{Left: left, Right: right}, nil
		case expr.OpGt:
			return sqldsl.Gt{Left: left, Right: right}, nil
		case expr.OpGte:
			return sqldsl.Gte{Left: left, Right: right}, nil
		}
		return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedExpr, v.Op)

	case expr.Unary:
		inner, err := c.compileNode(sc, v.Operand)
		if err != nil {
			return nil, err
		}
		return sqldsl.Not(inner), nil

	case expr.Member:
		segments, ok := expr.Chain(v)
		if !ok {
			return nil, fmt.Errorf("%w: property read on a non-chain expression", ErrUnsupportedExpr)
		}
		return c.resolveChain(sc, segments)

	case expr.Call:
		return c.compileQuantifier(sc, v)

	case expr.Ident:
		if _, ok := sc.lookup(v.Name); ok || sc.isUser(v.Name) {
			return nil, fmt.Errorf("%w: %q is not a boolean expression on its own", ErrUnsupportedExpr, v.Name)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnboundIdentifier, v.Name)

	case expr.Lambda:
		return nil, fmt.Errorf("%w: lambda is only allowed as a quantifier callback", ErrUnsupportedExpr)
	}

	return nil, fmt.Errorf("%w: unhandled node %T", ErrUnsupportedExpr, n)
}

// resolveChain compiles a property chain. Two-element chains resolve to a
// column (or a belongsTo foreign-key column, avoiding a join for simple
// equality checks); longer chains compile to a scalar correlated subquery
// walking each relation hop.
func (c *Compilation) resolveChain(sc scope, segments []string) (sqldsl.Expr, error) {
	head := segments[0]

	if b, ok := sc.lookup(head); ok {
		return c.resolveModelChain(sc, b, segments)
	}

	if sc.isUser(head) {
		if len(segments) != 2 {
			return nil, fmt.Errorf("%w: user.%s", ErrUnknownProperty, strings.Join(segments[1:], "."))
		}
		accessor, ok := userAccessors[segments[1]]
		if !ok {
			return nil, fmt.Errorf("%w: user.%s is not a session-context accessor", ErrUnknownProperty, segments[1])
		}
		return sqldsl.Raw(accessor), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnboundIdentifier, head)
}

func (c *Compilation) resolveModelChain(sc scope, b binding, segments []string) (sqldsl.Expr, error) {
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: %q is not a boolean expression on its own", ErrUnsupportedExpr, segments[0])
	}

	if len(segments) == 2 {
		col, err := c.terminalColumn(b.model, segments[1])
		if err != nil {
			return nil, err
		}
		return sqldsl.Col{Table: b.alias, Column: col}, nil
	}

	chain, err := c.buildHops(b, segments[1:len(segments)-1], sc.depth)
	if err != nil {
		return nil, err
	}
	col, err := c.terminalColumn(chain.terminal, segments[len(segments)-1])
	if err != nil {
		return nil, err
	}

	return sqldsl.SelectStmt{
		Columns: []sqldsl.Expr{sqldsl.Col{Table: chain.lastAlias, Column: col}},
		From:    chain.tables,
		Where:   sqldsl.And(chain.conds...),
	}.Scalar(), nil
}

// terminalColumn resolves the final chain segment on a model: a declared
// field maps to its column, a belongsTo relation name maps to its
// foreign-key column.
func (c *Compilation) terminalColumn(m *model.Definition, prop string) (string, error) {
	if f, ok := m.Field(prop); ok {
		return model.ColumnName(f.Name), nil
	}
	if rel, ok := m.Relation(prop); ok && rel.Kind == model.BelongsTo {
		return model.ColumnName(rel.ForeignKey), nil
	}
	return "", fmt.Errorf("%w: model %s has no field or belongsTo relation %q",
		ErrUnknownProperty, m.Name, prop)
}

// hopChain is the join/correlation structure shared by scalar subqueries and
// collection predicates: all joined tables with j0, j1, ... aliases, the
// correlation conditions (including automatic tenant filters), and the
// terminal model reached by the last hop.
type hopChain struct {
	tables    []sqldsl.TableRef
	conds     []sqldsl.Expr
	lastAlias string
	terminal  *model.Definition
}

// buildHops walks relation hops from the binding's model. A belongsTo hop
// joins child.id = parent.<fk>; a hasMany hop joins child.<fk> = parent.id;
// a manyToMany hop goes through the declared join table with a jN_link
// alias. Every joined table's tenant column is ANDed into the correlation
// when multitenancy is enabled. aliasBase offsets the j-numbering so chains
// nested inside quantifier callbacks never reuse an enclosing alias.
func (c *Compilation) buildHops(b binding, hops []string, aliasBase int) (*hopChain, error) {
	if len(hops) > maxHopDepth {
		return nil, fmt.Errorf("%w: model %s: %d hops exceeds the cap of %d (%s)",
			ErrHopDepth, b.model.Name, len(hops), maxHopDepth, strings.Join(hops, "."))
	}

	chain := &hopChain{}
	parent := b.model
	parentAlias := b.alias

	for i, name := range hops {
		rel, ok := parent.Relation(name)
		if !ok {
			return nil, fmt.Errorf("%w: model %s has no relation %q", ErrUnknownProperty, parent.Name, name)
		}
		target, ok := model.Lookup(c.models, rel.Target)
		if !ok {
			return nil, fmt.Errorf("%w: relation %s.%s targets %q", ErrUnknownProperty, parent.Name, name, rel.Target)
		}

		alias := fmt.Sprintf("j%d", aliasBase+i)

		switch rel.Kind {
		case model.BelongsTo:
			pk, ok := target.PrimaryKey()
			if !ok {
				return nil, fmt.Errorf("%w: model %s has no primary key", ErrUnknownProperty, target.Name)
			}
			chain.tables = append(chain.tables, sqldsl.TableRef{Table: target.TableName(), Alias: alias})
			chain.conds = append(chain.conds, sqldsl.Eq{
				Left:  sqldsl.Col{Table: alias, Column: model.ColumnName(pk.Name)},
				Right: sqldsl.Col{Table: parentAlias, Column: model.ColumnName(rel.ForeignKey)},
			})

		case model.HasMany:
			pk, ok := parent.PrimaryKey()
			if !ok {
				return nil, fmt.Errorf("%w: model %s has no primary key", ErrUnknownProperty, parent.Name)
			}
			chain.tables = append(chain.tables, sqldsl.TableRef{Table: target.TableName(), Alias: alias})
			chain.conds = append(chain.conds, sqldsl.Eq{
				Left:  sqldsl.Col{Table: alias, Column: model.ColumnName(rel.ForeignKey)},
				Right: sqldsl.Col{Table: parentAlias, Column: model.ColumnName(pk.Name)},
			})

		case model.ManyToMany:
			if rel.Through == "" {
				return nil, fmt.Errorf("%w: manyToMany relation %s.%s declares no join table",
					ErrUnknownProperty, parent.Name, name)
			}
			parentPK, ok := parent.PrimaryKey()
			if !ok {
				return nil, fmt.Errorf("%w: model %s has no primary key", ErrUnknownProperty, parent.Name)
			}
			targetPK, ok := target.PrimaryKey()
			if !ok {
				return nil, fmt.Errorf("%w: model %s has no primary key", ErrUnknownProperty, target.Name)
			}
			linkAlias := alias + "_link"
			chain.tables = append(chain.tables,
				sqldsl.TableRef{Table: rel.Through, Alias: linkAlias},
				sqldsl.TableRef{Table: target.TableName(), Alias: alias},
			)
			chain.conds = append(chain.conds,
				sqldsl.Eq{
					Left:  sqldsl.Col{Table: linkAlias, Column: model.ColumnName(model.LowerCamel(parent.Name) + "Id")},
					Right: sqldsl.Col{Table: parentAlias, Column: model.ColumnName(parentPK.Name)},
				},
				sqldsl.Eq{
					Left:  sqldsl.Col{Table: alias, Column: model.ColumnName(targetPK.Name)},
					Right: sqldsl.Col{Table: linkAlias, Column: model.ColumnName(model.LowerCamel(target.Name) + "Id")},
				},
			)

		default:
			return nil, fmt.Errorf("%w: relation %s.%s has unknown kind %q",
				ErrUnknownProperty, parent.Name, name, rel.Kind)
		}

		if c.multiTenant {
			if tf, ok := target.TenantField(); ok {
				chain.conds = append(chain.conds, tenantFilter(alias, model.ColumnName(tf.Name)))
			}
		}

		parent = target
		parentAlias = alias
	}

	chain.lastAlias = parentAlias
	chain.terminal = parent
	return chain, nil
}

// compileQuantifier compiles the three collection operations. The receiver
// must be a relation-valued chain; includes takes a compiled value, some and
// every take a single-parameter callback bound to the terminal model.
func (c *Compilation) compileQuantifier(sc scope, call expr.Call) (sqldsl.Expr, error) {
	segments, ok := expr.Chain(call.Recv)
	if !ok {
		return nil, fmt.Errorf("%w: %s() receiver must be a relation chain", ErrUnsupportedExpr, call.Method)
	}
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: %s() requires a relation chain", ErrUnsupportedExpr, call.Method)
	}

	b, bound := sc.lookup(segments[0])
	if !bound {
		if sc.isUser(segments[0]) {
			return nil, fmt.Errorf("%w: user has no relations to quantify over", ErrUnsupportedExpr)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnboundIdentifier, segments[0])
	}

	chain, err := c.buildHops(b, segments[1:], sc.depth)
	if err != nil {
		return nil, err
	}

	if len(call.Args) != 1 {
		return nil, fmt.Errorf("%w: %s() takes exactly one argument", ErrUnsupportedExpr, call.Method)
	}

	switch call.Method {
	case "includes":
		pk, ok := chain.terminal.PrimaryKey()
		if !ok {
			return nil, fmt.Errorf("%w: includes() requires model %s to declare a primary key",
				ErrUnsupportedExpr, chain.terminal.Name)
		}
		value, err := c.compileNode(sc, call.Args[0])
		if err != nil {
			return nil, err
		}
		return sqldsl.InQuery{
			Expr: value,
			Query: sqldsl.SelectStmt{
				Columns: []sqldsl.Expr{sqldsl.Col{Table: chain.lastAlias, Column: model.ColumnName(pk.Name)}},
				From:    chain.tables,
				Where:   sqldsl.And(chain.conds...),
			},
		}, nil

	case "some", "every":
		lam, ok := call.Args[0].(expr.Lambda)
		if !ok {
			return nil, fmt.Errorf("%w: %s() takes a single-parameter callback", ErrUnsupportedExpr, call.Method)
		}
		inner := sc.descend(len(segments) - 1).
			with(lam.Param, binding{model: chain.terminal, alias: chain.lastAlias})
		pred, err := c.compileNode(inner, lam.Body)
		if err != nil {
			return nil, err
		}

		if call.Method == "some" {
			where := sqldsl.And(append(append([]sqldsl.Expr{}, chain.conds...), sqldsl.Paren{Expr: pred})...)
			return sqldsl.Exists{Query: sqldsl.SelectStmt{From: chain.tables, Where: where}}, nil
		}

		// every: universal quantifier as its NOT EXISTS dual.
		where := sqldsl.And(append(append([]sqldsl.Expr{}, chain.conds...), sqldsl.Not(pred))...)
		return sqldsl.NotExists{Query: sqldsl.SelectStmt{From: chain.tables, Where: where}}, nil
	}

	return nil, fmt.Errorf("%w: %s() is not a quantifier", ErrUnsupportedExpr, call.Method)
}

// fallbackEquality matches the single legacy pattern accepted when a body
// does not parse: record.<field> == "<value>" (single or double quotes,
// loose or strict equality).
var fallbackEquality = regexp.MustCompile(
	`^record\.([A-Za-z_][A-Za-z0-9_]*)\s*===?\s*(?:"([^"]*)"|'([^']*)')$`)

// compileFallback accepts the literals true/false and the single legacy
// equality pattern. Anything else surfaces the original parse error.
func (c *Compilation) compileFallback(owner *model.Definition, src string, parseErr error) (sqldsl.Expr, error) {
	body := strings.TrimSpace(src)

	switch body {
	case "true":
		return sqldsl.Bool(true), nil
	case "false":
		return sqldsl.Bool(false), nil
	}

	if m := fallbackEquality.FindStringSubmatch(body); m != nil {
		field := m[1]
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if _, ok := owner.Field(field); !ok {
			return nil, fmt.Errorf("%w: model %s has no field or belongsTo relation %q",
				ErrUnknownProperty, owner.Name, field)
		}
		return sqldsl.Eq{
			Left:  sqldsl.Col{Column: model.ColumnName(field)},
			Right: sqldsl.Lit(value),
		}, nil
	}

	return nil, fmt.Errorf("%w: model %s: %v", ErrUnsupportedExpr, owner.Name, parseErr)
}

// Package sqldsl provides a small SQL expression tree for building strata's
// row-level-security predicates. It models the predicate language directly
// rather than generic SQL syntax: expressions compose into boolean trees that
// render compactly on a single line, since RLS predicates are embedded inside
// CREATE POLICY statements.
package sqldsl

import (
	"fmt"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Col represents a column reference, optionally qualified by a table alias.
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes, doubling embedded quotes.
func (l Lit) SQL() string {
	escaped := strings.ReplaceAll(string(l), "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions; used for number
// literals carried verbatim from the source and for session accessors.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Bool represents a boolean literal.
type Bool bool

// SQL renders the boolean.
func (b Bool) SQL() string {
	if b {
		return "true"
	}
	return "false"
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.SQL()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// FuncLits builds a Func whose arguments are all string literals.
// Convenient for membership checks over literal role/claim lists.
func FuncLits(name string, values []string) Func {
	args := make([]Expr, len(values))
	for i, v := range values {
		args[i] = Lit(v)
	}
	return Func{Name: name, Args: args}
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}

// TableRef is a table in a FROM clause with an optional alias.
type TableRef struct {
	Table string
	Alias string
}

// SQL renders the table reference.
func (t TableRef) SQL() string {
	if t.Alias == "" {
		return t.Table
	}
	return t.Table + " AS " + t.Alias
}

// SelectStmt represents a SELECT rendered on one line, for embedding as a
// subquery inside a predicate.
type SelectStmt struct {
	Columns []Expr // defaults to SELECT 1
	From    []TableRef
	Where   Expr
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(s.columnsSQL())
	if len(s.From) > 0 {
		parts := make([]string, len(s.From))
		for i, t := range s.From {
			parts[i] = t.SQL()
		}
		b.WriteString(" FROM ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.SQL())
	}
	return b.String()
}

func (s SelectStmt) columnsSQL() string {
	if len(s.Columns) == 0 {
		return "1"
	}
	parts := make([]string, len(s.Columns))
	for i, e := range s.Columns {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, ", ")
}

// Scalar wraps the SELECT in parentheses for use as a scalar subquery.
func (s SelectStmt) Scalar() Expr {
	return Raw(fmt.Sprintf("(%s)", s.SQL()))
}

package sqldsl

import "strings"

// Comparison operators

// Eq represents an equality comparison (=).
type Eq struct {
	Left  Expr
	Right Expr
}

func (e Eq) SQL() string { return e.Left.SQL() + " = " + e.Right.SQL() }

// Ne represents a not-equal comparison (<>).
type Ne struct {
	Left  Expr
	Right Expr
}

func (n Ne) SQL() string { return n.Left.SQL() + " <> " + n.Right.SQL() }

// Lt represents a less-than comparison (<).
type Lt struct {
	Left  Expr
	Right Expr
}

func (l Lt) SQL() string { return l.Left.SQL() + " < " + l.Right.SQL() }

// Gt represents a greater-than comparison (>).
type Gt struct {
	Left  Expr
	Right Expr
}

func (g Gt) SQL() string { return g.Left.SQL() + " > " + g.Right.SQL() }

// Lte represents a less-than-or-equal comparison (<=).
type Lte struct {
	Left  Expr
	Right Expr
}

func (l Lte) SQL() string { return l.Left.SQL() + " <= " + l.Right.SQL() }

// Gte represents a greater-than-or-equal comparison (>=).
type Gte struct {
	Left  Expr
	Right Expr
}

func (g Gte) SQL() string { return g.Left.SQL() + " >= " + g.Right.SQL() }

// Logical operators

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// joinExprs renders expressions joined by a separator, wrapped in
// parentheses if more than one.
func joinExprs(exprs []Expr, sep, emptyVal string) string {
	switch len(exprs) {
	case 0:
		return emptyVal
	case 1:
		return exprs[0].SQL()
	default:
		parts := make([]string, len(exprs))
		for i, e := range exprs {
			parts[i] = e.SQL()
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
}

// AndExpr represents a logical AND of multiple expressions.
type AndExpr struct {
	Exprs []Expr
}

func (a AndExpr) SQL() string { return joinExprs(a.Exprs, " AND ", "true") }

// And creates an AND expression from multiple expressions, skipping nils.
func And(exprs ...Expr) AndExpr {
	return AndExpr{Exprs: filterNilExprs(exprs)}
}

// OrExpr represents a logical OR of multiple expressions.
type OrExpr struct {
	Exprs []Expr
}

func (o OrExpr) SQL() string { return joinExprs(o.Exprs, " OR ", "false") }

// Or creates an OR expression from multiple expressions, skipping nils.
func Or(exprs ...Expr) OrExpr {
	return OrExpr{Exprs: filterNilExprs(exprs)}
}

// NotExpr represents a logical NOT of an expression.
type NotExpr struct {
	Expr Expr
}

func (n NotExpr) SQL() string { return "NOT (" + n.Expr.SQL() + ")" }

// Not creates a NOT expression.
func Not(expr Expr) NotExpr { return NotExpr{Expr: expr} }

// Exists represents an EXISTS subquery.
type Exists struct {
	Query SelectStmt
}

func (e Exists) SQL() string { return "EXISTS (" + e.Query.SQL() + ")" }

// NotExists represents a NOT EXISTS subquery.
type NotExists struct {
	Query SelectStmt
}

func (n NotExists) SQL() string { return "NOT EXISTS (" + n.Query.SQL() + ")" }

// InQuery represents "expr IN (subquery)".
type InQuery struct {
	Expr  Expr
	Query SelectStmt
}

func (i InQuery) SQL() string { return i.Expr.SQL() + " IN (" + i.Query.SQL() + ")" }

// Package expr parses the restricted boolean-expression language used in
// strata policies and ABAC conditions.
//
// The language is a closed, auditable subset: boolean/number/string
// literals, logical AND/OR, comparisons, unary negation, property-chain
// reads, and exactly three collection operations (some, every, includes).
// Arbitrary control flow, loops, and any other function call are rejected at
// parse time, never compiled. An optional single-parameter lambda wrapper
// around the whole body is accepted; a bare expression is equivalent to its
// return value.
//
// The parser produces a small AST (the Node sum type) that the SQL compiler
// in internal/sqlgen dispatches over with one arm per node kind.
package expr

// Node is the closed set of expression AST nodes.
// The SQL compiler switches over the concrete types; any new node kind must
// be handled there as well.
type Node interface {
	exprNode()
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// NumberLit is a numeric literal. The source text is preserved so the
// compiler can embed it verbatim without reformatting.
type NumberLit struct {
	Text string
}

// StringLit is a string literal (quotes removed, escapes resolved).
type StringLit struct {
	Value string
}

// Ident is a bare identifier, the head of a property chain.
type Ident struct {
	Name string
}

// Member is a property read on an object expression.
// Chains like record.author.name nest left: Member(Member(record, author), name).
type Member struct {
	Object   Node
	Property string
}

// Call is a collection-operation invocation on a property chain.
// Method is one of "some", "every", or "includes"; the parser rejects any
// other callee.
type Call struct {
	Recv   Node
	Method string
	Args   []Node
}

// BinaryOp is the closed set of binary operators. Strict and loose equality
// are collapsed by the parser: === parses to OpEq and !== to OpNe.
type BinaryOp string

const (
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
	OpEq  BinaryOp = "=="
	OpNe  BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="
)

// Binary is a binary operation.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Unary is a unary negation (!).
type Unary struct {
	Operand Node
}

// Lambda is a single-parameter arrow function. It appears either as the
// optional wrapper around a whole policy body or as the callback of a
// some/every quantifier.
type Lambda struct {
	Param string
	Body  Node
}

func (BoolLit) exprNode()   {}
func (NumberLit) exprNode() {}
func (StringLit) exprNode() {}
func (Ident) exprNode()     {}
func (Member) exprNode()    {}
func (Call) exprNode()      {}
func (Binary) exprNode()    {}
func (Unary) exprNode()     {}
func (Lambda) exprNode()    {}

// Chain flattens a property chain rooted at an identifier into its segments:
// record.author.name yields ["record", "author", "name"]. Returns false when
// n is not a pure chain (e.g. it contains a call or literal).
func Chain(n Node) ([]string, bool) {
	switch v := n.(type) {
	case Ident:
		return []string{v.Name}, true
	case Member:
		head, ok := Chain(v.Object)
		if !ok {
			return nil, false
		}
		return append(head, v.Property), true
	default:
		return nil, false
	}
}

package expr

import (
	"errors"
	"fmt"
)

// ErrSyntax is returned for any source that falls outside the supported
// expression subset.
var ErrSyntax = errors.New("strata/expr: unsupported expression syntax")

// IsSyntaxErr returns true if err is or wraps ErrSyntax.
func IsSyntaxErr(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// quantifiers is the closed set of callable collection operations.
var quantifiers = map[string]bool{
	"some":     true,
	"every":    true,
	"includes": true,
}

// Parse parses one policy or condition body. An optional single-parameter
// lambda wrapper is allowed: "post => post.x" yields a Lambda whose parameter
// name the caller binds before compiling the body.
func Parse(src string) (Node, error) {
	p := &parser{lex: lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}

	node, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, p.errf("unexpected trailing %q", p.cur.text)
	}
	return node, nil
}

type parser struct {
	lex lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), p.cur.pos)
}

// parseBody parses either a lambda wrapper or a bare expression.
func (p *parser) parseBody() (Node, error) {
	if lam, ok, err := p.tryLambda(); err != nil || ok {
		return lam, err
	}
	return p.parseOr()
}

// tryLambda recognizes "x => body" and "(x) => body" by lookahead over a
// saved lexer position. Returns ok=false (with the position restored) when
// the input is not a lambda.
func (p *parser) tryLambda() (Node, bool, error) {
	saveLex, saveTok := p.lex, p.cur

	restore := func() {
		p.lex, p.cur = saveLex, saveTok
	}

	var param string
	switch p.cur.kind {
	case tokIdent:
		param = p.cur.text
		if err := p.advance(); err != nil {
			restore()
			return nil, false, nil
		}
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		if p.cur.kind != tokIdent {
			restore()
			return nil, false, nil
		}
		param = p.cur.text
		if err := p.advance(); err != nil {
			restore()
			return nil, false, nil
		}
		if p.cur.kind != tokRParen {
			restore()
			return nil, false, nil
		}
		if err := p.advance(); err != nil {
			restore()
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	if p.cur.kind != tokArrow {
		restore()
		return nil, false, nil
	}
	if err := p.advance(); err != nil {
		return nil, false, err
	}

	body, err := p.parseOr()
	if err != nil {
		return nil, false, err
	}
	return Lambda{Param: param, Body: body}, true, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && p.cur.text == "||" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && p.cur.text == "&&" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[string]BinaryOp{
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLte,
	">":  OpGt,
	">=": OpGte,
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokOp {
		if op, ok := comparisonOps[p.cur.text]; ok {
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return Binary{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur.kind == tokBang {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any number of
// property reads, terminated by at most one quantifier call. Chained calls
// like .some(x).every(y) are rejected; quantifiers only terminate a chain.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.cur.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokIdent {
			return nil, p.errf("expected property name after '.'")
		}
		prop := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		if p.cur.kind == tokLParen {
			if !quantifiers[prop] {
				return nil, p.errf("call to %q is not allowed; only some, every, and includes may be invoked", prop)
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			call := Call{Recv: node, Method: prop, Args: args}
			if p.cur.kind == tokDot {
				return nil, p.errf("property access after %s(...) is not allowed", prop)
			}
			return call, nil
		}

		node = Member{Object: node, Property: prop}
	}

	return node, nil
}

func (p *parser) parseArgs() ([]Node, error) {
	// cur is '('
	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []Node
	if p.cur.kind == tokRParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return args, nil
	}

	for {
		arg, err := p.parseBody() // arguments may be lambdas
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if p.cur.kind != tokRParen {
		return nil, p.errf("expected ')'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokBool:
		v := p.cur.text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return BoolLit{Value: v}, nil

	case tokNumber:
		text := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NumberLit{Text: text}, nil

	case tokString:
		v := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return StringLit{Value: v}, nil

	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Ident{Name: name}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, p.errf("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, p.errf("unexpected %q", p.cur.text)
}

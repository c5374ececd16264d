package expr

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokBool
	tokLParen
	tokRParen
	tokDot
	tokComma
	tokBang
	tokArrow // =>
	tokOp    // binary operator, normalized text in tok.text
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer tokenizes an expression body. The token set is closed; any rune
// outside it is a syntax error, which keeps the language auditable.
type lexer struct {
	src string
	pos int
}

func (l *lexer) errf(pos int, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), pos)
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		word := l.src[start:l.pos]
		if word == "true" || word == "false" {
			return token{kind: tokBool, text: word, pos: start}, nil
		}
		return token{kind: tokIdent, text: word, pos: start}, nil

	case isDigit(c):
		l.pos++
		dotted := false
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
			if l.src[l.pos] == '.' {
				// A dot followed by a non-digit terminates the number; it
				// belongs to a property access like 1 .toString (which is
				// rejected later). A second fractional dot is malformed.
				if l.pos+1 >= len(l.src) || !isDigit(l.src[l.pos+1]) {
					break
				}
				if dotted {
					return token{}, l.errf(start, "malformed number literal")
				}
				dotted = true
			}
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], pos: start}, nil

	case c == '\'' || c == '"':
		return l.lexString(c)

	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == '.':
		l.pos++
		return token{kind: tokDot, text: ".", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil

	case c == '&':
		if strings.HasPrefix(l.src[l.pos:], "&&") {
			l.pos += 2
			return token{kind: tokOp, text: "&&", pos: start}, nil
		}
		return token{}, l.errf(start, "unexpected %q", "&")

	case c == '|':
		if strings.HasPrefix(l.src[l.pos:], "||") {
			l.pos += 2
			return token{kind: tokOp, text: "||", pos: start}, nil
		}
		return token{}, l.errf(start, "unexpected %q", "|")

	case c == '=':
		switch {
		case strings.HasPrefix(l.src[l.pos:], "==="):
			l.pos += 3
			return token{kind: tokOp, text: "==", pos: start}, nil
		case strings.HasPrefix(l.src[l.pos:], "=>"):
			l.pos += 2
			return token{kind: tokArrow, text: "=>", pos: start}, nil
		case strings.HasPrefix(l.src[l.pos:], "=="):
			l.pos += 2
			return token{kind: tokOp, text: "==", pos: start}, nil
		}
		return token{}, l.errf(start, "assignment is not allowed")

	case c == '!':
		switch {
		case strings.HasPrefix(l.src[l.pos:], "!=="):
			l.pos += 3
			return token{kind: tokOp, text: "!=", pos: start}, nil
		case strings.HasPrefix(l.src[l.pos:], "!="):
			l.pos += 2
			return token{kind: tokOp, text: "!=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokBang, text: "!", pos: start}, nil

	case c == '<':
		if strings.HasPrefix(l.src[l.pos:], "<=") {
			l.pos += 2
			return token{kind: tokOp, text: "<=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokOp, text: "<", pos: start}, nil

	case c == '>':
		if strings.HasPrefix(l.src[l.pos:], ">=") {
			l.pos += 2
			return token{kind: tokOp, text: ">=", pos: start}, nil
		}
		l.pos++
		return token{kind: tokOp, text: ">", pos: start}, nil
	}

	return token{}, l.errf(start, "unsupported character %q", string(c))
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			next := l.src[l.pos+1]
			switch next {
			case quote, '\\':
				b.WriteByte(next)
				l.pos += 2
				continue
			}
		}
		if c == quote {
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		l.pos++
	}
	return token{}, l.errf(start, "unterminated string")
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// Package formula parses and evaluates the arithmetic expressions that
// define virtual meters, e.g. `FISCAL - (SUB1 + 0.5*SUB2)`.
//
//	expr   := term (("+"|"-") term)*
//	term   := factor (("*"|"/") factor)*
//	factor := ["-"] (NUMBER | IDENT | "(" expr ")")
//
// Values are decimals; binary floating point is never involved.
package formula

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type Expression struct {
	Source string
	Root   Node
	refs   []string
}

// Parse compiles src into an expression tree.
func Parse(src string) (*Expression, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, refs: map[string]struct{}{}}
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 1, Msg: "empty expression"}
	}

	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos + 1, Msg: fmt.Sprintf("unexpected %s %q", tok.kind, tok.text)}
	}

	refs := make([]string, 0, len(p.refs))
	for ref := range p.refs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	return &Expression{Source: src, Root: root, refs: refs}, nil
}

// Refs returns the sorted, distinct identifiers the expression references.
func (e *Expression) Refs() []string {
	return append([]string(nil), e.refs...)
}

// Eval evaluates the expression against env. It fails with a
// *MissingOperandError when env lacks a referenced value and with
// ErrDivisionByZero when a divisor is zero.
func (e *Expression) Eval(env Env) (decimal.Decimal, error) {
	return e.Root.Eval(env)
}

// String renders the tree fully parenthesized.
func (e *Expression) String() string {
	return e.Root.String()
}

type parser struct {
	tokens []token
	pos    int
	refs   map[string]struct{}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expr() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.peek().kind
		if kind != tokPlus && kind != tokMinus {
			return left, nil
		}
		op := p.next().text[0]
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) term() (Node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.peek().kind
		if kind != tokStar && kind != tokSlash {
			return left, nil
		}
		op := p.next().text[0]
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) factor() (Node, error) {
	negate := false
	if p.peek().kind == tokMinus {
		p.next()
		negate = true
	}

	operand, err := p.primary()
	if err != nil {
		return nil, err
	}
	if negate {
		return Neg{Operand: operand}, nil
	}
	return operand, nil
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		v, err := decimal.NewFromString(tok.text)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos + 1, Msg: fmt.Sprintf("malformed number %q", tok.text)}
		}
		return Number{Value: v}, nil
	case tokIdent:
		p.refs[tok.text] = struct{}{}
		return Ref{Identifier: tok.text}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: closing.pos + 1, Msg: fmt.Sprintf("expected \")\", found %s", closing.kind)}
		}
		return inner, nil
	default:
		return nil, &SyntaxError{Pos: tok.pos + 1, Msg: fmt.Sprintf("expected number, identifier or \"(\", found %s", tok.kind)}
	}
}

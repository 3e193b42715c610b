package formula

import (
	"github.com/shopspring/decimal"
)

// Env resolves an identifier to its value at the timestamp being evaluated.
type Env func(identifier string) (decimal.Decimal, bool)

type Node interface {
	Eval(env Env) (decimal.Decimal, error)
	String() string
}

type Number struct {
	Value decimal.Decimal
}

func (n Number) Eval(Env) (decimal.Decimal, error) { return n.Value, nil }
func (n Number) String() string                    { return n.Value.String() }

type Ref struct {
	Identifier string
}

func (r Ref) Eval(env Env) (decimal.Decimal, error) {
	v, ok := env(r.Identifier)
	if !ok {
		return decimal.Zero, &MissingOperandError{Identifier: r.Identifier}
	}
	return v, nil
}

func (r Ref) String() string {
	for _, c := range r.Identifier {
		if !isIdentPart(c) {
			return "[" + r.Identifier + "]"
		}
	}
	return r.Identifier
}

type Neg struct {
	Operand Node
}

func (n Neg) Eval(env Env) (decimal.Decimal, error) {
	v, err := n.Operand.Eval(env)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Neg(), nil
}

func (n Neg) String() string { return "(-" + n.Operand.String() + ")" }

type Binary struct {
	Op    byte
	Left  Node
	Right Node
}

func (b Binary) Eval(env Env) (decimal.Decimal, error) {
	left, err := b.Left.Eval(env)
	if err != nil {
		return decimal.Zero, err
	}
	right, err := b.Right.Eval(env)
	if err != nil {
		return decimal.Zero, err
	}

	switch b.Op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	default:
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return left.Div(right), nil
	}
}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

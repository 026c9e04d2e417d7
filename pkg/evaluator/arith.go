// Package evaluator holds concrete hierarchies and the matchers that operate
// on them: arithmetic expressions, shapes, JSON values and a handful of
// smaller models. Each constructor declares its hierarchies into the given
// registry and builds its matchers once.
package evaluator

import (
	"strconv"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const ExpressionHierarchy = "Expression"

// Arithmetic evaluates and renders integer expression trees.
type Arithmetic struct {
	Hierarchy *variant.Hierarchy

	eval   *match.Matcher[int64]
	format *match.Matcher[string]
}

func NewArithmetic(reg *variant.Registry, opts ...match.Option) (*Arithmetic, error) {
	expr := variant.Ref(ExpressionHierarchy)
	h, err := reg.Declare(ExpressionHierarchy,
		variant.V("Constant", variant.F("value", variant.Int())),
		variant.V("Addition", variant.F("left", expr), variant.F("right", expr)),
		variant.V("Multiplication", variant.F("left", expr), variant.F("right", expr)),
	)
	if err != nil {
		return nil, err
	}

	a := &Arithmetic{Hierarchy: h}
	a.eval, err = match.Build(h, []match.Arm[int64]{
		match.Case(pattern.Destructure("Constant", pattern.Bind("value")), func(env *runtime.Bindings) (int64, error) {
			return env.Int("value")
		}),
		match.Case(pattern.Destructure("Addition", pattern.Bind("left"), pattern.Bind("right")), a.operands(func(l, r int64) int64 {
			return l + r
		})),
		match.Case(pattern.Destructure("Multiplication", pattern.Bind("left"), pattern.Bind("right")), a.operands(func(l, r int64) int64 {
			return l * r
		})),
	}, opts...)
	if err != nil {
		return nil, err
	}

	a.format, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Destructure("Constant", pattern.Bind("value")), func(env *runtime.Bindings) (string, error) {
			n, err := env.Int("value")
			return strconv.FormatInt(n, 10), err
		}),
		match.Case(pattern.Destructure("Addition", pattern.Bind("left"), pattern.Bind("right")), a.infix("+")),
		match.Case(pattern.Destructure("Multiplication", pattern.Bind("left"), pattern.Bind("right")), a.infix("*")),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Eval computes the value of an expression. Overflow wraps around.
func (a *Arithmetic) Eval(expr runtime.Value) (int64, error) {
	return a.eval.Match(expr)
}

// Format renders an expression with every binary operation parenthesised,
// e.g. `(5 * (1 + 2))`.
func (a *Arithmetic) Format(expr runtime.Value) (string, error) {
	return a.format.Match(expr)
}

func (a *Arithmetic) operands(op func(l, r int64) int64) func(*runtime.Bindings) (int64, error) {
	return func(env *runtime.Bindings) (int64, error) {
		left, err := env.Get("left")
		if err != nil {
			return 0, err
		}
		right, err := env.Get("right")
		if err != nil {
			return 0, err
		}
		l, err := a.eval.Match(left)
		if err != nil {
			return 0, err
		}
		r, err := a.eval.Match(right)
		if err != nil {
			return 0, err
		}
		return op(l, r), nil
	}
}

func (a *Arithmetic) infix(symbol string) func(*runtime.Bindings) (string, error) {
	return func(env *runtime.Bindings) (string, error) {
		left, _ := env.Get("left")
		right, _ := env.Get("right")
		l, err := a.format.Match(left)
		if err != nil {
			return "", err
		}
		r, err := a.format.Match(right)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + symbol + " " + r + ")", nil
	}
}

// Constant, Add and Mul build expression nodes. They panic if an operand
// belongs to another hierarchy.
func (a *Arithmetic) Constant(n int64) *runtime.VariantValue {
	return a.Hierarchy.MustNew("Constant", runtime.Int(n))
}

func (a *Arithmetic) Add(left, right runtime.Value) *runtime.VariantValue {
	return a.Hierarchy.MustNew("Addition", left, right)
}

func (a *Arithmetic) Mul(left, right runtime.Value) *runtime.VariantValue {
	return a.Hierarchy.MustNew("Multiplication", left, right)
}

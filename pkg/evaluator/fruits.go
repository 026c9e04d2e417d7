package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const FruitHierarchy = "Fruit"

// Fruits describes apples, oranges and bananas. The organic flag of an apple
// is matched with boolean literals, which together cover the field.
type Fruits struct {
	Hierarchy *variant.Hierarchy

	describe *match.Matcher[string]
}

func NewFruits(reg *variant.Registry, opts ...match.Option) (*Fruits, error) {
	h, err := reg.Declare(FruitHierarchy,
		variant.V("Apple", variant.F("variety", variant.String()), variant.F("organic", variant.Bool())),
		variant.V("Orange", variant.F("segments", variant.Int())),
		variant.V("Banana", variant.F("ripeness", variant.Float())),
	)
	if err != nil {
		return nil, err
	}
	apple := func(organic bool, suffix string) match.Arm[string] {
		return match.Case(pattern.Destructure("Apple", pattern.Bind("variety"), pattern.Lit(runtime.Bool(organic))), func(env *runtime.Bindings) (string, error) {
			variety, err := env.Str("variety")
			return "Apple variety: " + variety + suffix, err
		})
	}

	f := &Fruits{Hierarchy: h}
	f.describe, err = match.Build(h, []match.Arm[string]{
		apple(true, " (Organic)"),
		apple(false, ""),
		match.Case(pattern.Destructure("Orange", pattern.Bind("segments")), func(env *runtime.Bindings) (string, error) {
			n, err := env.Int("segments")
			return fmt.Sprintf("Orange with %d segments", n), err
		}),
		match.Case(pattern.Destructure("Banana", pattern.Bind("ripeness")), func(env *runtime.Bindings) (string, error) {
			r, err := env.Get("ripeness")
			if err != nil {
				return "", err
			}
			return "Banana with ripeness level: " + runtime.Format(r), nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fruits) Describe(fruit runtime.Value) (string, error) {
	return f.describe.Match(fruit)
}

func (f *Fruits) Apple(variety string, organic bool) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Apple", runtime.Str(variety), runtime.Bool(organic))
}

func (f *Fruits) Orange(segments int64) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Orange", runtime.Int(segments))
}

func (f *Fruits) Banana(ripeness float64) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Banana", runtime.Float(ripeness))
}

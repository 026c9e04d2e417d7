package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const (
	PointHierarchy  = "Point"
	FigureHierarchy = "Figure"
)

// Figures describes figures placed on an integer grid. It shows nested
// destructuring across two hierarchies.
type Figures struct {
	Points    *variant.Hierarchy
	Hierarchy *variant.Hierarchy

	describe *match.Matcher[string]
}

func NewFigures(reg *variant.Registry, opts ...match.Option) (*Figures, error) {
	points, err := reg.Declare(PointHierarchy,
		variant.V("Point", variant.F("x", variant.Int()), variant.F("y", variant.Int())),
	)
	if err != nil {
		return nil, err
	}
	point := variant.Ref(PointHierarchy)
	h, err := reg.Declare(FigureHierarchy,
		variant.V("Rect", variant.F("topLeft", point), variant.F("bottomRight", point)),
		variant.V("Disc", variant.F("center", point), variant.F("radius", variant.Float())),
		variant.V("Dot", variant.F("at", point)),
	)
	if err != nil {
		return nil, err
	}
	at := func(x, y string) pattern.Pattern {
		return pattern.Destructure("Point", pattern.Bind(x), pattern.Bind(y))
	}

	f := &Figures{Points: points, Hierarchy: h}
	f.describe, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Destructure("Rect", at("x1", "y1"), at("x2", "y2")), func(env *runtime.Bindings) (string, error) {
			c, err := ints(env, "x1", "y1", "x2", "y2")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Rectangle from (%d,%d) to (%d,%d) with width %d and height %d",
				c[0], c[1], c[2], c[3], c[2]-c[0], c[3]-c[1]), nil
		}),
		match.Case(pattern.Destructure("Disc", at("x", "y"), pattern.Bind("r")), func(env *runtime.Bindings) (string, error) {
			c, err := ints(env, "x", "y")
			if err != nil {
				return "", err
			}
			r, _ := env.Get("r")
			return fmt.Sprintf("Circle at (%d,%d) with radius %s", c[0], c[1], runtime.Format(r)), nil
		}),
		match.Case(pattern.Destructure("Dot", at("x", "y")), func(env *runtime.Bindings) (string, error) {
			c, err := ints(env, "x", "y")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Point at (%d,%d)", c[0], c[1]), nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Figures) Describe(fig runtime.Value) (string, error) {
	return f.describe.Match(fig)
}

func (f *Figures) Point(x, y int64) *runtime.VariantValue {
	return f.Points.MustNew("Point", runtime.Int(x), runtime.Int(y))
}

func (f *Figures) Rect(topLeft, bottomRight runtime.Value) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Rect", topLeft, bottomRight)
}

func (f *Figures) Disc(center runtime.Value, radius float64) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Disc", center, runtime.Float(radius))
}

func (f *Figures) Dot(at runtime.Value) *runtime.VariantValue {
	return f.Hierarchy.MustNew("Dot", at)
}

func ints(env *runtime.Bindings, names ...string) ([]int64, error) {
	out := make([]int64, len(names))
	for i, name := range names {
		n, err := env.Int(name)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

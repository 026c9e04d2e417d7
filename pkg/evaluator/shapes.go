package evaluator

import (
	"fmt"
	"math"
	"strings"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const ShapeHierarchy = "Shape"

// InvalidGeometryError reports a shape whose dimensions describe no real
// figure: a non-positive or non-finite dimension, or triangle sides that
// violate the triangle inequality.
type InvalidGeometryError struct {
	Shape  string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("evaluator: invalid %s: %s", e.Shape, e.Reason)
}

// Shapes computes areas and descriptions of circles, rectangles and
// triangles.
type Shapes struct {
	Hierarchy *variant.Hierarchy

	area     *match.Matcher[float64]
	describe *match.Matcher[string]
}

func NewShapes(reg *variant.Registry, opts ...match.Option) (*Shapes, error) {
	h, err := reg.Declare(ShapeHierarchy,
		variant.V("Circle", variant.F("radius", variant.Float())),
		variant.V("Rectangle", variant.F("length", variant.Float()), variant.F("width", variant.Float())),
		variant.V("Triangle", variant.F("a", variant.Float()), variant.F("b", variant.Float()), variant.F("c", variant.Float())),
	)
	if err != nil {
		return nil, err
	}

	s := &Shapes{Hierarchy: h}
	s.area, err = match.Build(h, []match.Arm[float64]{
		match.Case(pattern.Destructure("Circle", pattern.Bind("radius")).As("shape"), func(env *runtime.Bindings) (float64, error) {
			dims, err := dimensions(env, "radius")
			if err != nil {
				return 0, err
			}
			r := dims[0]
			return math.Pi * r * r, nil
		}),
		match.Case(pattern.Destructure("Rectangle", pattern.Bind("length"), pattern.Bind("width")).As("shape"), func(env *runtime.Bindings) (float64, error) {
			dims, err := dimensions(env, "length", "width")
			if err != nil {
				return 0, err
			}
			return dims[0] * dims[1], nil
		}),
		match.Case(pattern.Destructure("Triangle", pattern.Bind("a"), pattern.Bind("b"), pattern.Bind("c")).As("shape"), func(env *runtime.Bindings) (float64, error) {
			dims, err := dimensions(env, "a", "b", "c")
			if err != nil {
				return 0, err
			}
			a, b, c := dims[0], dims[1], dims[2]
			if !(a+b > c && a+c > b && b+c > a) {
				return 0, invalid(env, "sides violate the triangle inequality")
			}
			// Heron's formula.
			p := (a + b + c) / 2
			return math.Sqrt(p * (p - a) * (p - b) * (p - c)), nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}

	s.describe, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Record("Circle", pattern.Field("radius", pattern.Bind("r"))), func(env *runtime.Bindings) (string, error) {
			return describeWith(env, "Circle with radius ", ", ", "r")
		}),
		match.Case(pattern.Record("Rectangle", pattern.Field("length", pattern.Bind("l")), pattern.Field("width", pattern.Bind("w"))), func(env *runtime.Bindings) (string, error) {
			return describeWith(env, "Rectangle with dimensions ", "x", "l", "w")
		}),
		match.Case(pattern.Destructure("Triangle", pattern.Bind("a"), pattern.Bind("b"), pattern.Bind("c")), func(env *runtime.Bindings) (string, error) {
			return describeWith(env, "Triangle with sides ", ", ", "a", "b", "c")
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Area returns the area of a shape or an *InvalidGeometryError.
func (s *Shapes) Area(shape runtime.Value) (float64, error) {
	return s.area.Match(shape)
}

func (s *Shapes) Describe(shape runtime.Value) (string, error) {
	return s.describe.Match(shape)
}

func (s *Shapes) Circle(radius float64) *runtime.VariantValue {
	return s.Hierarchy.MustNew("Circle", runtime.Float(radius))
}

func (s *Shapes) Rectangle(length, width float64) *runtime.VariantValue {
	return s.Hierarchy.MustNew("Rectangle", runtime.Float(length), runtime.Float(width))
}

func (s *Shapes) Triangle(a, b, c float64) *runtime.VariantValue {
	return s.Hierarchy.MustNew("Triangle", runtime.Float(a), runtime.Float(b), runtime.Float(c))
}

func dimensions(env *runtime.Bindings, names ...string) ([]float64, error) {
	dims := make([]float64, len(names))
	for i, name := range names {
		d, err := env.Float(name)
		if err != nil {
			return nil, err
		}
		if !(d > 0) || math.IsInf(d, 1) {
			return nil, invalid(env, fmt.Sprintf("%s must be positive and finite, got %s", name, runtime.Format(runtime.Float(d))))
		}
		dims[i] = d
	}
	return dims, nil
}

func invalid(env *runtime.Bindings, reason string) error {
	shape, _ := env.Get("shape")
	return &InvalidGeometryError{Shape: runtime.Format(shape), Reason: reason}
}

func describeWith(env *runtime.Bindings, prefix, sep string, names ...string) (string, error) {
	parts := make([]string, len(names))
	for i, name := range names {
		v, err := env.Get(name)
		if err != nil {
			return "", err
		}
		parts[i] = runtime.Format(v)
	}
	return prefix + strings.Join(parts, sep), nil
}

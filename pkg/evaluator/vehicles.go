package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const (
	VehicleHierarchy = "Vehicle"
	CarBodyHierarchy = "CarBody"
)

// Vehicles describes cars, trucks and motorcycles. A car carries a body from
// its own hierarchy, so cars are refined in a second match over the body.
type Vehicles struct {
	Bodies    *variant.Hierarchy
	Hierarchy *variant.Hierarchy

	describe *match.Matcher[string]
	car      *match.Matcher[string]
	kind     *match.Matcher[string]
}

func NewVehicles(reg *variant.Registry, opts ...match.Option) (*Vehicles, error) {
	bodies, err := reg.Declare(CarBodyHierarchy,
		variant.V("Plain"),
		variant.V("Sedan", variant.F("leatherSeats", variant.Bool())),
		variant.V("SportsCar", variant.F("convertible", variant.Bool())),
	)
	if err != nil {
		return nil, err
	}
	h, err := reg.Declare(VehicleHierarchy,
		variant.V("Car", variant.F("make", variant.String()), variant.F("model", variant.String()),
			variant.F("doors", variant.Int()), variant.F("body", variant.Ref(CarBodyHierarchy))),
		variant.V("Truck", variant.F("make", variant.String()), variant.F("model", variant.String()),
			variant.F("payloadCapacity", variant.Int())),
		variant.V("Motorcycle", variant.F("make", variant.String()), variant.F("model", variant.String()),
			variant.F("sideCar", variant.Bool())),
	)
	if err != nil {
		return nil, err
	}

	v := &Vehicles{Bodies: bodies, Hierarchy: h}

	// Car arms run inside the scope of the enclosing Car match and read
	// make, model and doors from it.
	v.car, err = match.Build(bodies, []match.Arm[string]{
		match.Case(pattern.Destructure("Sedan", pattern.Bind("leather")), func(env *runtime.Bindings) (string, error) {
			line, err := carLine(env)
			if err != nil {
				return "", err
			}
			leather, err := env.Bool("leather")
			return line + "\n  Sedan " + with(leather) + " leather seats", err
		}),
		match.Case(pattern.Wildcard(), carLine),
	}, opts...)
	if err != nil {
		return nil, err
	}

	v.describe, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Destructure("Car", pattern.Bind("make"), pattern.Bind("model"), pattern.Bind("doors"), pattern.Bind("body")), func(env *runtime.Bindings) (string, error) {
			body, err := env.Get("body")
			if err != nil {
				return "", err
			}
			return v.car.MatchIn(env, body)
		}),
		match.Case(pattern.Destructure("Truck", pattern.Bind("make"), pattern.Bind("model"), pattern.Bind("payload")), func(env *runtime.Bindings) (string, error) {
			name, err := makeAndModel(env)
			if err != nil {
				return "", err
			}
			payload, err := env.Int("payload")
			return fmt.Sprintf("%s with payload capacity: %d lbs", name, payload), err
		}),
		match.Case(pattern.Destructure("Motorcycle", pattern.Bind("make"), pattern.Bind("model"), pattern.Bind("sideCar")), func(env *runtime.Bindings) (string, error) {
			name, err := makeAndModel(env)
			if err != nil {
				return "", err
			}
			sideCar, err := env.Bool("sideCar")
			return name + " " + with(sideCar) + " sidecar", err
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}

	car := func(body pattern.Pattern) pattern.Pattern {
		return pattern.Destructure("Car", pattern.Wildcard(), pattern.Wildcard(), pattern.Wildcard(), body)
	}
	v.kind, err = match.Build(h, []match.Arm[string]{
		match.Case(car(pattern.Destructure("Sedan", pattern.Wildcard())), constant("sedan")),
		match.Case(car(pattern.Destructure("SportsCar", pattern.Lit(runtime.Bool(true)))), constant("convertible sports car")),
		match.Case(car(pattern.Destructure("SportsCar", pattern.Lit(runtime.Bool(false)))), constant("sports car")),
		match.Case(car(pattern.Type("Plain")), constant("car")),
		match.Case(pattern.Type("Truck"), constant("truck")),
		match.Case(pattern.Type("Motorcycle"), constant("motorcycle")),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func carLine(env *runtime.Bindings) (string, error) {
	name, err := makeAndModel(env)
	if err != nil {
		return "", err
	}
	doors, err := env.Int("doors")
	return fmt.Sprintf("%s with %d doors", name, doors), err
}

func makeAndModel(env *runtime.Bindings) (string, error) {
	maker, err := env.Str("make")
	if err != nil {
		return "", err
	}
	model, err := env.Str("model")
	return maker + " " + model, err
}

func with(b bool) string {
	if b {
		return "with"
	}
	return "without"
}

func constant(s string) func(*runtime.Bindings) (string, error) {
	return func(*runtime.Bindings) (string, error) { return s, nil }
}

// Describe prints make, model and the variant specific details. Sedans get a
// second line about their seats.
func (v *Vehicles) Describe(vehicle runtime.Value) (string, error) {
	return v.describe.Match(vehicle)
}

// Kind names the most specific category of a vehicle.
func (v *Vehicles) Kind(vehicle runtime.Value) (string, error) {
	return v.kind.Match(vehicle)
}

func (v *Vehicles) Car(maker, model string, doors int64, body runtime.Value) *runtime.VariantValue {
	return v.Hierarchy.MustNew("Car", runtime.Str(maker), runtime.Str(model), runtime.Int(doors), body)
}

func (v *Vehicles) Truck(maker, model string, payload int64) *runtime.VariantValue {
	return v.Hierarchy.MustNew("Truck", runtime.Str(maker), runtime.Str(model), runtime.Int(payload))
}

func (v *Vehicles) Motorcycle(maker, model string, sideCar bool) *runtime.VariantValue {
	return v.Hierarchy.MustNew("Motorcycle", runtime.Str(maker), runtime.Str(model), runtime.Bool(sideCar))
}

func (v *Vehicles) Plain() *runtime.VariantValue {
	return v.Bodies.MustNew("Plain")
}

func (v *Vehicles) Sedan(leatherSeats bool) *runtime.VariantValue {
	return v.Bodies.MustNew("Sedan", runtime.Bool(leatherSeats))
}

func (v *Vehicles) SportsCar(convertible bool) *runtime.VariantValue {
	return v.Bodies.MustNew("SportsCar", runtime.Bool(convertible))
}

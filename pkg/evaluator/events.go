package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const EventHierarchy = "Event"

// Events renders UI events as log lines.
type Events struct {
	Hierarchy *variant.Hierarchy

	handle *match.Matcher[string]
}

func NewEvents(reg *variant.Registry, opts ...match.Option) (*Events, error) {
	h, err := reg.Declare(EventHierarchy,
		variant.V("MouseClick", variant.F("x", variant.Int()), variant.F("y", variant.Int())),
		variant.V("KeyPress", variant.F("keyChar", variant.String()), variant.F("withShift", variant.Bool())),
		variant.V("WindowResize", variant.F("width", variant.Int()), variant.F("height", variant.Int())),
	)
	if err != nil {
		return nil, err
	}

	e := &Events{Hierarchy: h}
	e.handle, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Destructure("MouseClick", pattern.Bind("x"), pattern.Bind("y")), func(env *runtime.Bindings) (string, error) {
			c, err := ints(env, "x", "y")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Mouse clicked at coordinates: (%d, %d)", c[0], c[1]), nil
		}),
		match.Case(pattern.Destructure("KeyPress", pattern.Bind("key"), pattern.Bind("shift")), func(env *runtime.Bindings) (string, error) {
			key, err := env.Str("key")
			if err != nil {
				return "", err
			}
			shift, err := env.Bool("shift")
			if err != nil {
				return "", err
			}
			if shift {
				return "Key pressed: " + key + " with SHIFT", nil
			}
			return "Key pressed: " + key, nil
		}),
		match.Case(pattern.Record("WindowResize", pattern.Field("width", pattern.Bind("w")), pattern.Field("height", pattern.Bind("h"))), func(env *runtime.Bindings) (string, error) {
			c, err := ints(env, "w", "h")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Window resized to: %dx%d", c[0], c[1]), nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Handle describes an event.
func (e *Events) Handle(event runtime.Value) (string, error) {
	return e.handle.Match(event)
}

func (e *Events) MouseClick(x, y int64) *runtime.VariantValue {
	return e.Hierarchy.MustNew("MouseClick", runtime.Int(x), runtime.Int(y))
}

func (e *Events) KeyPress(key string, withShift bool) *runtime.VariantValue {
	return e.Hierarchy.MustNew("KeyPress", runtime.Str(key), runtime.Bool(withShift))
}

func (e *Events) WindowResize(width, height int64) *runtime.VariantValue {
	return e.Hierarchy.MustNew("WindowResize", runtime.Int(width), runtime.Int(height))
}

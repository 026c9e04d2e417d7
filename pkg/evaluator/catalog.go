package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/variant"
)

// Catalog bundles every evaluator declared into one registry.
type Catalog struct {
	Registry *variant.Registry

	Arithmetic *Arithmetic
	Shapes     *Shapes
	JSON       *JSON
	Commands   *Commands
	Responses  *Responses
	Trees      *Trees
	People     *People
	Optionals  *Optionals
	Router     *Router
	Figures    *Figures
	Fruits     *Fruits
	Vehicles   *Vehicles
	Events     *Events
}

// NewCatalog declares all hierarchies into reg and builds their matchers.
func NewCatalog(reg *variant.Registry, opts ...match.Option) (*Catalog, error) {
	c := &Catalog{Registry: reg}
	var err error
	steps := []struct {
		name  string
		build func() error
	}{
		{"arithmetic", func() error { c.Arithmetic, err = NewArithmetic(reg, opts...); return err }},
		{"shapes", func() error { c.Shapes, err = NewShapes(reg, opts...); return err }},
		{"json", func() error { c.JSON, err = NewJSON(reg, opts...); return err }},
		{"commands", func() error { c.Commands, err = NewCommands(reg, opts...); return err }},
		{"responses", func() error { c.Responses, err = NewResponses(reg, opts...); return err }},
		{"trees", func() error { c.Trees, err = NewTrees(reg, opts...); return err }},
		{"people", func() error { c.People, err = NewPeople(reg, opts...); return err }},
		{"optionals", func() error { c.Optionals, err = NewOptionals(reg, opts...); return err }},
		{"router", func() error { c.Router, err = NewRouter(reg, opts...); return err }},
		{"figures", func() error { c.Figures, err = NewFigures(reg, opts...); return err }},
		{"fruits", func() error { c.Fruits, err = NewFruits(reg, opts...); return err }},
		{"vehicles", func() error { c.Vehicles, err = NewVehicles(reg, opts...); return err }},
		{"events", func() error { c.Events, err = NewEvents(reg, opts...); return err }},
	}
	for _, step := range steps {
		if err := step.build(); err != nil {
			return nil, fmt.Errorf("evaluator: build %s: %w", step.name, err)
		}
	}
	return c, nil
}

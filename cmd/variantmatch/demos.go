package main

import (
	"errors"
	"fmt"
	"io"

	"variantmatch/pkg/evaluator"
	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
)

type demo struct {
	Key       string
	Hierarchy string
	Title     string
	Run       func(c *evaluator.Catalog, w io.Writer) error
}

var demos = []demo{
	{"arith", evaluator.ExpressionHierarchy, "Evaluate arithmetic expressions", runArithmetic},
	{"shapes", evaluator.ShapeHierarchy, "Shape areas and descriptions", runShapes},
	{"json", evaluator.JSONHierarchy, "Classify JSON values", runJSON},
	{"commands", evaluator.CommandHierarchy, "Apply calculator commands", runCommands},
	{"responses", evaluator.ResponseHierarchy, "Describe HTTP responses", runResponses},
	{"tree", evaluator.TreeHierarchy, "Count and measure binary trees", runTrees},
	{"people", evaluator.PeopleHierarchy, "Categorise people with guards", runPeople},
	{"routing", evaluator.RequestHierarchy, "Route HTTP requests", runRouting},
	{"optional", evaluator.OptionalHierarchy, "Handle absent optionals", runOptionals},
	{"figures", evaluator.FigureHierarchy, "Nested destructuring of figures", runFigures},
	{"fruits", evaluator.FruitHierarchy, "Describe fruits", runFruits},
	{"vehicles", evaluator.VehicleHierarchy, "Refine cars by body type", runVehicles},
	{"events", evaluator.EventHierarchy, "Handle UI events", runEvents},
	{"exhaustive", evaluator.ExpressionHierarchy, "Matchers rejected at build time", runExhaustive},
}

func findDemo(key string) (demo, bool) {
	for _, d := range demos {
		if d.Key == key {
			return d, true
		}
	}
	return demo{}, false
}

func runArithmetic(c *evaluator.Catalog, w io.Writer) error {
	a := c.Arithmetic
	exprs := []runtime.Value{
		a.Constant(10),
		a.Add(a.Constant(5), a.Constant(7)),
		a.Mul(a.Constant(3), a.Add(a.Constant(1), a.Constant(2))),
		a.Add(a.Mul(a.Constant(5), a.Constant(3)), a.Constant(2)),
		a.Mul(a.Constant(5), a.Add(a.Constant(1), a.Constant(2))),
	}
	for _, expr := range exprs {
		text, err := a.Format(expr)
		if err != nil {
			return err
		}
		n, err := a.Eval(expr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %d\n", text, n)
	}
	return nil
}

func runShapes(c *evaluator.Catalog, w io.Writer) error {
	s := c.Shapes
	for _, shape := range []runtime.Value{s.Circle(5), s.Rectangle(4, 6), s.Triangle(3, 4, 5), s.Triangle(1, 1, 10)} {
		desc, err := s.Describe(shape)
		if err != nil {
			return err
		}
		area, err := s.Area(shape)
		var invalid *evaluator.InvalidGeometryError
		switch {
		case errors.As(err, &invalid):
			fmt.Fprintf(w, "%s: %s\n", desc, invalid.Reason)
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "%s: area %.2f\n", desc, area)
		}
	}
	return nil
}

const sampleDocument = `{
  "name": "Alice",
  "age": 30,
  "address": {"street": "123 Main St", "city": "New York"},
  "hobbies": ["reading", "hiking"],
  "isEmployed": true,
  "spouse": null
}`

func runJSON(c *evaluator.Catalog, w io.Writer) error {
	j := c.JSON
	doc, err := j.Parse(sampleDocument)
	if err != nil {
		return err
	}
	values := []runtime.Value{
		doc,
		j.Object(runtime.Entry{Key: "error", Value: j.String("not found")}),
		j.Array(j.Number(1), j.Number(2), j.Number(3)),
		j.String("hello"),
		j.Number(3.14),
		j.Boolean(true),
		j.Null(),
		j.Array(),
	}
	for _, v := range values {
		text, err := j.Marshal(v)
		if err != nil {
			return err
		}
		class, err := j.Classify(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s -> %s\n", text, class)
	}
	return nil
}

func runCommands(c *evaluator.Catalog, w io.Writer) error {
	cmds := c.Commands
	add := cmds.Add(10)
	var total int64
	for _, cmd := range []runtime.Value{add, cmds.Subtract(5), add, cmds.Reset()} {
		var err error
		if total, err = cmds.Execute(total, cmd); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s -> %d\n", runtime.Format(cmd), total)
	}
	return nil
}

func runResponses(c *evaluator.Catalog, w io.Writer) error {
	r := c.Responses
	for _, resp := range []runtime.Value{
		r.Success(200, "OK", `{"data": "example"}`),
		r.Redirect(302, "Found", "/new-location"),
		r.Error(404, "Not Found", "The requested resource was not found"),
	} {
		desc, err := r.Describe(resp)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, desc)
	}
	return nil
}

func runTrees(c *evaluator.Catalog, w io.Writer) error {
	t := c.Trees
	for _, tree := range []runtime.Value{
		t.Leaf(42),
		t.Node(t.Leaf(10), t.Leaf(30)),
		t.Node(t.Node(t.Leaf(1), t.Leaf(2)), t.Leaf(3)),
	} {
		count, err := t.CountNodes(tree)
		if err != nil {
			return err
		}
		depth, err := t.Depth(tree)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d nodes, depth %d\n", runtime.Format(tree), count, depth)
	}
	return nil
}

func runPeople(c *evaluator.Catalog, w io.Writer) error {
	p := c.People
	for _, person := range []runtime.Value{
		p.Person("Alice", 25),
		p.Person("Bob", 17),
		p.Person("Charlie", 65),
		p.Person("", 30),
	} {
		category, err := p.Categorize(person)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, category)
	}
	return nil
}

func runRouting(c *evaluator.Catalog, w io.Writer) error {
	r := c.Router
	requests := []struct{ method, path, header, value string }{
		{"GET", "/api/users", "Accept", "application/json"},
		{"POST", "/api/users", "Content-Type", "application/json"},
		{"GET", "/api/admin", "Authorization", "Bearer token"},
		{"DELETE", "/api/admin/users", "Accept", "*/*"},
		{"GET", "/api/unknown", "Accept", "*/*"},
	}
	for _, req := range requests {
		resp, err := r.Route(r.Request(req.method, req.path, req.header, req.value))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s -> %s\n", req.method, req.path, resp)
	}
	return nil
}

func runOptionals(c *evaluator.Catalog, w io.Writer) error {
	o := c.Optionals
	for _, opt := range []runtime.Value{o.Present("Value"), o.Empty(), runtime.Absent} {
		desc, err := o.Describe(opt)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, desc)
	}
	return nil
}

func runFigures(c *evaluator.Catalog, w io.Writer) error {
	f := c.Figures
	for _, fig := range []runtime.Value{
		f.Rect(f.Point(0, 0), f.Point(10, 10)),
		f.Disc(f.Point(5, 5), 5),
		f.Dot(f.Point(1, 2)),
	} {
		desc, err := f.Describe(fig)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, desc)
	}
	return nil
}

func runFruits(c *evaluator.Catalog, w io.Writer) error {
	f := c.Fruits
	for _, fruit := range []runtime.Value{f.Apple("Red Delicious", true), f.Orange(11), f.Banana(8.5)} {
		desc, err := f.Describe(fruit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, desc)
	}
	return nil
}

func runVehicles(c *evaluator.Catalog, w io.Writer) error {
	v := c.Vehicles
	for _, vehicle := range []runtime.Value{
		v.Car("Toyota", "Camry", 4, v.Plain()),
		v.Truck("Ford", "F-150", 2500),
		v.Motorcycle("Honda", "CBR600", false),
		v.Car("Honda", "Accord", 4, v.Sedan(true)),
		v.Car("Mazda", "MX-5", 2, v.SportsCar(true)),
	} {
		kind, err := v.Kind(vehicle)
		if err != nil {
			return err
		}
		desc, err := v.Describe(vehicle)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", kind, desc)
	}
	return nil
}

func runEvents(c *evaluator.Catalog, w io.Writer) error {
	e := c.Events
	for _, event := range []runtime.Value{e.MouseClick(100, 150), e.KeyPress("A", true), e.WindowResize(800, 600)} {
		line, err := e.Handle(event)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func runExhaustive(c *evaluator.Catalog, w io.Writer) error {
	h := c.Arithmetic.Hierarchy
	label := func(s string) func(*runtime.Bindings) (string, error) {
		return func(*runtime.Bindings) (string, error) { return s, nil }
	}
	attempts := []struct {
		name string
		arms []match.Arm[string]
		opts []match.Option
	}{
		{
			name: "missing Multiplication",
			arms: []match.Arm[string]{
				match.Case(pattern.Type("Constant"), label("c")),
				match.Case(pattern.Type("Addition"), label("a")),
			},
		},
		{
			name: "absent values without a null arm",
			arms: []match.Arm[string]{
				match.Case(pattern.Type("Constant"), label("c")),
				match.Case(pattern.Type("Addition"), label("a")),
				match.Case(pattern.Type("Multiplication"), label("m")),
			},
			opts: []match.Option{match.AllowAbsent()},
		},
		{
			name: "arm shadowed by a wildcard",
			arms: []match.Arm[string]{
				match.Case(pattern.Wildcard(), label("any")),
				match.Case(pattern.Type("Constant"), label("c")),
			},
			opts: []match.Option{match.Strict()},
		},
	}
	for _, a := range attempts {
		_, err := match.Build(h, a.arms, a.opts...)
		if err == nil {
			return fmt.Errorf("%s: matcher unexpectedly accepted", a.name)
		}
		fmt.Fprintf(w, "%s: %v\n", a.name, err)
	}
	return nil
}

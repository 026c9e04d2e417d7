package evaluator

import (
	"fmt"

	"variantmatch/pkg/match"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

const (
	CommandHierarchy  = "Command"
	ResponseHierarchy = "HttpResponse"
)

// Commands applies calculator commands to a running total.
type Commands struct {
	Hierarchy *variant.Hierarchy

	execute *match.Matcher[func(int64) int64]
}

func NewCommands(reg *variant.Registry, opts ...match.Option) (*Commands, error) {
	h, err := reg.Declare(CommandHierarchy,
		variant.V("Add", variant.F("value", variant.Int())),
		variant.V("Subtract", variant.F("value", variant.Int())),
		variant.V("Reset"),
	)
	if err != nil {
		return nil, err
	}
	c := &Commands{Hierarchy: h}
	c.execute, err = match.Build(h, []match.Arm[func(int64) int64]{
		match.Case(pattern.Destructure("Add", pattern.Bind("n")), func(env *runtime.Bindings) (func(int64) int64, error) {
			n, err := env.Int("n")
			return func(cur int64) int64 { return cur + n }, err
		}),
		match.Case(pattern.Destructure("Subtract", pattern.Bind("n")), func(env *runtime.Bindings) (func(int64) int64, error) {
			n, err := env.Int("n")
			return func(cur int64) int64 { return cur - n }, err
		}),
		match.Case(pattern.Type("Reset"), func(*runtime.Bindings) (func(int64) int64, error) {
			return func(int64) int64 { return 0 }, nil
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Execute applies cmd to current.
func (c *Commands) Execute(current int64, cmd runtime.Value) (int64, error) {
	apply, err := c.execute.Match(cmd)
	if err != nil {
		return 0, err
	}
	return apply(current), nil
}

// Run applies cmds in order starting from zero.
func (c *Commands) Run(cmds ...runtime.Value) (int64, error) {
	var total int64
	for _, cmd := range cmds {
		var err error
		if total, err = c.Execute(total, cmd); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (c *Commands) Add(n int64) *runtime.VariantValue {
	return c.Hierarchy.MustNew("Add", runtime.Int(n))
}

func (c *Commands) Subtract(n int64) *runtime.VariantValue {
	return c.Hierarchy.MustNew("Subtract", runtime.Int(n))
}

func (c *Commands) Reset() *runtime.VariantValue {
	return c.Hierarchy.MustNew("Reset")
}

// Responses describes HTTP responses.
type Responses struct {
	Hierarchy *variant.Hierarchy

	describe *match.Matcher[string]
}

func NewResponses(reg *variant.Registry, opts ...match.Option) (*Responses, error) {
	h, err := reg.Declare(ResponseHierarchy,
		variant.V("Success", variant.F("statusCode", variant.Int()), variant.F("statusText", variant.String()), variant.F("body", variant.String())),
		variant.V("Redirect", variant.F("statusCode", variant.Int()), variant.F("statusText", variant.String()), variant.F("location", variant.String())),
		variant.V("Error", variant.F("statusCode", variant.Int()), variant.F("statusText", variant.String()), variant.F("errorMessage", variant.String())),
	)
	if err != nil {
		return nil, err
	}
	r := &Responses{Hierarchy: h}
	r.describe, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Record("Success", pattern.Field("statusCode", pattern.Bind("code")), pattern.Field("body", pattern.Bind("body"))), func(env *runtime.Bindings) (string, error) {
			code, _ := env.Int("code")
			body, err := env.Str("body")
			return fmt.Sprintf("Success (%d): %s", code, body), err
		}),
		match.Case(pattern.Record("Redirect", pattern.Field("location", pattern.Bind("location"))), func(env *runtime.Bindings) (string, error) {
			location, err := env.Str("location")
			return "Redirect to " + location, err
		}),
		match.Case(pattern.Record("Error", pattern.Field("statusCode", pattern.Bind("code")), pattern.Field("errorMessage", pattern.Bind("msg"))), func(env *runtime.Bindings) (string, error) {
			code, _ := env.Int("code")
			msg, err := env.Str("msg")
			return fmt.Sprintf("Error (%d): %s", code, msg), err
		}),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Responses) Describe(resp runtime.Value) (string, error) {
	return r.describe.Match(resp)
}

func (r *Responses) Success(code int64, text, body string) *runtime.VariantValue {
	return r.Hierarchy.MustNew("Success", runtime.Int(code), runtime.Str(text), runtime.Str(body))
}

func (r *Responses) Redirect(code int64, text, location string) *runtime.VariantValue {
	return r.Hierarchy.MustNew("Redirect", runtime.Int(code), runtime.Str(text), runtime.Str(location))
}

func (r *Responses) Error(code int64, text, message string) *runtime.VariantValue {
	return r.Hierarchy.MustNew("Error", runtime.Int(code), runtime.Str(text), runtime.Str(message))
}

const TreeHierarchy = "BinaryTree"

// Trees measures binary trees.
type Trees struct {
	Hierarchy *variant.Hierarchy

	count *match.Matcher[int]
	depth *match.Matcher[int]
}

func NewTrees(reg *variant.Registry, opts ...match.Option) (*Trees, error) {
	tree := variant.Ref(TreeHierarchy)
	h, err := reg.Declare(TreeHierarchy,
		variant.V("Node", variant.F("left", tree), variant.F("right", tree)),
		variant.V("Leaf", variant.F("value", variant.Int())),
	)
	if err != nil {
		return nil, err
	}
	t := &Trees{Hierarchy: h}
	t.count, err = match.Build(h, []match.Arm[int]{
		match.Case(pattern.Type("Leaf"), func(*runtime.Bindings) (int, error) { return 1, nil }),
		match.Case(pattern.Destructure("Node", pattern.Bind("left"), pattern.Bind("right")), t.children(func() *match.Matcher[int] { return t.count }, func(l, r int) int {
			return 1 + l + r
		})),
	}, opts...)
	if err != nil {
		return nil, err
	}
	t.depth, err = match.Build(h, []match.Arm[int]{
		match.Case(pattern.Type("Leaf"), func(*runtime.Bindings) (int, error) { return 1, nil }),
		match.Case(pattern.Destructure("Node", pattern.Bind("left"), pattern.Bind("right")), t.children(func() *match.Matcher[int] { return t.depth }, func(l, r int) int {
			return 1 + max(l, r)
		})),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trees) children(m func() *match.Matcher[int], combine func(l, r int) int) func(*runtime.Bindings) (int, error) {
	return func(env *runtime.Bindings) (int, error) {
		left, _ := env.Get("left")
		right, _ := env.Get("right")
		l, err := m().Match(left)
		if err != nil {
			return 0, err
		}
		r, err := m().Match(right)
		if err != nil {
			return 0, err
		}
		return combine(l, r), nil
	}
}

// CountNodes counts leaves and inner nodes.
func (t *Trees) CountNodes(tree runtime.Value) (int, error) {
	return t.count.Match(tree)
}

// Depth is the number of levels; a single leaf has depth 1.
func (t *Trees) Depth(tree runtime.Value) (int, error) {
	return t.depth.Match(tree)
}

func (t *Trees) Node(left, right runtime.Value) *runtime.VariantValue {
	return t.Hierarchy.MustNew("Node", left, right)
}

func (t *Trees) Leaf(n int64) *runtime.VariantValue {
	return t.Hierarchy.MustNew("Leaf", runtime.Int(n))
}

const PeopleHierarchy = "People"

// People categorises people by age using guarded arms.
type People struct {
	Hierarchy *variant.Hierarchy

	categorize *match.Matcher[string]
}

func NewPeople(reg *variant.Registry, opts ...match.Option) (*People, error) {
	h, err := reg.Declare(PeopleHierarchy,
		variant.V("Person", variant.F("name", variant.String()), variant.F("age", variant.Int())),
	)
	if err != nil {
		return nil, err
	}
	person := func() pattern.Pattern {
		return pattern.Destructure("Person", pattern.Bind("name"), pattern.Bind("age"))
	}
	age := func(pred func(int64) bool) match.Guard {
		return func(env *runtime.Bindings) (bool, error) {
			n, err := env.Int("age")
			return err == nil && pred(n), err
		}
	}
	named := func(suffix string) func(*runtime.Bindings) (string, error) {
		return func(env *runtime.Bindings) (string, error) {
			name, err := env.Str("name")
			return name + suffix, err
		}
	}

	p := &People{Hierarchy: h}
	p.categorize, err = match.Build(h, []match.Arm[string]{
		match.When(person(), func(env *runtime.Bindings) (bool, error) {
			name, err := env.Str("name")
			return name == "", err
		}, func(*runtime.Bindings) (string, error) { return "Person with empty name", nil }),
		match.When(person(), age(func(n int64) bool { return n < 18 }), named(" is a minor")),
		match.When(person(), age(func(n int64) bool { return n >= 65 }), named(" is a senior")),
		match.When(person(), age(func(n int64) bool { return n >= 18 && n < 65 }), named(" is an adult")),
		match.Case(pattern.Wildcard(), func(*runtime.Bindings) (string, error) { return "Unknown category", nil }),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *People) Categorize(person runtime.Value) (string, error) {
	return p.categorize.Match(person)
}

func (p *People) Person(name string, age int64) *runtime.VariantValue {
	return p.Hierarchy.MustNew("Person", runtime.Str(name), runtime.Int(age))
}

const OptionalHierarchy = "Optional"

// Optionals describes optional string references, including an absent one.
type Optionals struct {
	Hierarchy *variant.Hierarchy

	describe *match.Matcher[string]
}

func NewOptionals(reg *variant.Registry, opts ...match.Option) (*Optionals, error) {
	h, err := reg.Declare(OptionalHierarchy,
		variant.V("Present", variant.F("value", variant.String())),
		variant.V("Empty"),
	)
	if err != nil {
		return nil, err
	}
	o := &Optionals{Hierarchy: h}
	o.describe, err = match.Build(h, []match.Arm[string]{
		match.Case(pattern.Null(), func(*runtime.Bindings) (string, error) { return "Null Optional reference", nil }),
		match.Case(pattern.Type("Empty"), func(*runtime.Bindings) (string, error) { return "Empty Optional", nil }),
		match.Case(pattern.Destructure("Present", pattern.Bind("v")), func(env *runtime.Bindings) (string, error) {
			v, err := env.Str("v")
			return "Optional with value: " + v, err
		}),
	}, append([]match.Option{match.AllowAbsent()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Describe accepts runtime.Absent as well as Optional values.
func (o *Optionals) Describe(opt runtime.Value) (string, error) {
	return o.describe.Match(opt)
}

func (o *Optionals) Present(v string) *runtime.VariantValue {
	return o.Hierarchy.MustNew("Present", runtime.Str(v))
}

func (o *Optionals) Empty() *runtime.VariantValue {
	return o.Hierarchy.MustNew("Empty")
}

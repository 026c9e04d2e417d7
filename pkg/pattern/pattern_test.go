package pattern

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"variantmatch/pkg/runtime"
)

func TestPatternString(t *testing.T) {
	cases := []struct {
		p    Pattern
		want string
	}{
		{Type("Circle").As("c"), "Circle c"},
		{Destructure("Addition", Bind("l"), Wildcard()), "Addition(var l, _)"},
		{Record("Person", Field("name", OfKind(runtime.KindString, "n"))).As("p"), "Person(name: string n) p"},
		{Null(), "null"},
		{Lit(runtime.Str("GET")), `"GET"`},
		{Destructure("Rectangle", Destructure("Point", Bind("x1"), Bind("y1")), Type("Point")), "Rectangle(Point(var x1, var y1), Point)"},
	}
	for _, tc := range cases {
		if got := tc.p.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestNamesCollectsNestedBindings(t *testing.T) {
	p := Destructure("Rectangle",
		Destructure("Point", Bind("x1"), Bind("y1")).As("tl"),
		Destructure("Point", Bind("x2"), Wildcard()),
	).As("r")
	want := []string{"r", "tl", "x1", "y1", "x2"}
	if diff := cmp.Diff(want, Names(p)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestAsDoesNotMutateOriginal(t *testing.T) {
	base := Type("Leaf")
	bound := base.As("leaf")
	if base.Binding != "" || bound.Binding != "leaf" {
		t.Fatalf("As mutated receiver: base=%q bound=%q", base.Binding, bound.Binding)
	}
	if bound.NodeType() != NodeTypePattern {
		t.Fatalf("unexpected node type %s", bound.NodeType())
	}
}

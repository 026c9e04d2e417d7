package variant

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"variantmatch/pkg/runtime"
)

func declareExpression(t *testing.T, reg *Registry) *Hierarchy {
	t.Helper()
	h, err := reg.Declare("Expression",
		V("Constant", F("value", Int())),
		V("Addition", F("left", Ref("Expression")), F("right", Ref("Expression"))),
		V("Multiplication", F("left", Ref("Expression")), F("right", Ref("Expression"))),
	)
	if err != nil {
		t.Fatalf("declare Expression: %v", err)
	}
	return h
}

func TestDeclareKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	declareExpression(t, reg)

	got, err := reg.VariantsOf("Expression")
	if err != nil {
		t.Fatalf("VariantsOf: %v", err)
	}
	want := []string{"Constant", "Addition", "Multiplication"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("variants mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclareErrors(t *testing.T) {
	reg := NewRegistry()
	declareExpression(t, reg)

	cases := []struct {
		name  string
		decl  func() error
		check func(error) bool
	}{
		{
			name: "empty",
			decl: func() error { _, err := reg.Declare("Nothing"); return err },
			check: func(err error) bool {
				var target *EmptyHierarchyError
				return errors.As(err, &target) && target.Hierarchy == "Nothing"
			},
		},
		{
			name: "duplicate variant",
			decl: func() error {
				_, err := reg.Declare("Shape", V("Circle", F("radius", Float())), V("Circle"))
				return err
			},
			check: func(err error) bool {
				var target *DuplicateVariantError
				return errors.As(err, &target) && target.Hierarchy == "Shape" && target.Variant == "Circle"
			},
		},
		{
			name: "redeclare",
			decl: func() error { _, err := reg.Declare("Expression", V("Constant")); return err },
			check: func(err error) bool {
				var target *DuplicateHierarchyError
				return errors.As(err, &target)
			},
		},
		{
			name: "duplicate field",
			decl: func() error {
				_, err := reg.Declare("Point", V("Point", F("x", Int()), F("x", Int())))
				return err
			},
			check: func(err error) bool {
				var target *DuplicateFieldError
				return errors.As(err, &target) && target.Field == "x"
			},
		},
		{
			name: "unknown reference",
			decl: func() error {
				_, err := reg.Declare("Wrapper", V("Wrap", F("inner", SequenceOf(Ref("Missing")))))
				return err
			},
			check: func(err error) bool {
				var target *UnknownHierarchyError
				return errors.As(err, &target) && target.Ref == "Missing"
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decl()
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	// Failed declarations must not register anything.
	for _, name := range []string{"Nothing", "Shape", "Point", "Wrapper"} {
		if _, ok := reg.Lookup(name); ok {
			t.Fatalf("hierarchy %s registered despite failure", name)
		}
	}
	if diff := cmp.Diff([]string{"Expression"}, reg.Hierarchies()); diff != "" {
		t.Fatalf("hierarchies mismatch (-want +got):\n%s", diff)
	}
}

func TestCrossHierarchyReference(t *testing.T) {
	reg := NewRegistry()
	expr := declareExpression(t, reg)
	stmt, err := reg.Declare("Statement",
		V("Print", F("expr", Ref("Expression"))),
		V("Block", F("body", SequenceOf(Ref("Statement")))),
	)
	if err != nil {
		t.Fatalf("declare Statement: %v", err)
	}

	c := expr.MustNew("Constant", runtime.Int(1))
	p, err := stmt.New("Print", c)
	if err != nil {
		t.Fatalf("new Print: %v", err)
	}
	if _, err := stmt.New("Block", runtime.NewSequence(p, p)); err != nil {
		t.Fatalf("new Block: %v", err)
	}
	if _, err := stmt.New("Block", runtime.NewSequence(p, c)); err == nil {
		t.Fatalf("expected element type mismatch")
	}
}

func TestNewValidatesFields(t *testing.T) {
	reg := NewRegistry()
	expr := declareExpression(t, reg)
	json, err := reg.Declare("Json",
		V("Object", F("properties", MappingOf(Ref("Json")))),
		V("String", F("value", String())),
		V("Maybe", Opt("value", String())),
	)
	if err != nil {
		t.Fatalf("declare Json: %v", err)
	}

	c := expr.MustNew("Constant", runtime.Int(5))
	cases := []struct {
		name string
		fn   func() error
		want string
	}{
		{"arity", func() error { _, err := expr.New("Addition", c); return err }, "variant: Expression.Addition: expected 2 fields, got 1"},
		{"kind", func() error { _, err := expr.New("Constant", runtime.Str("5")); return err }, "variant: Expression.Constant field value: expected int, got string"},
		{"foreign hierarchy", func() error {
			_, err := json.New("Object", runtime.NewMapping(runtime.Entry{Key: "x", Value: c}))
			return err
		}, `variant: Json.Object field properties: key "x": expected Json, got Expression.Constant`},
		{"absent required", func() error { _, err := json.New("String", runtime.Absent); return err }, "variant: Json.String field value: value is absent but the field is not optional"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if err == nil || err.Error() != tc.want {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}

	if _, err := json.New("Maybe", nil); err != nil {
		t.Fatalf("optional field should accept absent: %v", err)
	}
	var unknown *UnknownVariantError
	if _, err := expr.New("Division"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVariantError, got %v", err)
	}
}

func TestRegistryConcurrentDeclareAndLookup(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("H%d", i)
			if _, err := reg.Declare(name, V("Only")); err != nil {
				t.Errorf("declare %s: %v", name, err)
				return
			}
			if _, ok := reg.Lookup(name); !ok {
				t.Errorf("lookup %s failed", name)
			}
		}(i)
	}
	wg.Wait()
	if got := len(reg.Hierarchies()); got != 16 {
		t.Fatalf("expected 16 hierarchies, got %d", got)
	}
}

func TestFieldTypeString(t *testing.T) {
	cases := map[string]FieldType{
		"int":         Int(),
		"Expression":  Ref("Expression"),
		"[]string":    SequenceOf(String()),
		"map[[]Json]": MappingOf(SequenceOf(Ref("Json"))),
		"map[float]":  MappingOf(Float()),
	}
	for want, ft := range cases {
		if got := ft.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}

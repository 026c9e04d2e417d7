package match

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"variantmatch/pkg/checker"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

type fixture struct {
	expr *variant.Hierarchy
	box  *variant.Hierarchy
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := variant.NewRegistry()
	expr, err := reg.Declare("Expression",
		variant.V("Constant", variant.F("value", variant.Int())),
		variant.V("Addition", variant.F("left", variant.Ref("Expression")), variant.F("right", variant.Ref("Expression"))),
		variant.V("Multiplication", variant.F("left", variant.Ref("Expression")), variant.F("right", variant.Ref("Expression"))),
	)
	if err != nil {
		t.Fatalf("declare Expression: %v", err)
	}
	box, err := reg.Declare("Box",
		variant.V("Full", variant.F("label", variant.String()), variant.Opt("note", variant.String())),
		variant.V("Empty"),
	)
	if err != nil {
		t.Fatalf("declare Box: %v", err)
	}
	return fixture{expr: expr, box: box}
}

func constant(h *variant.Hierarchy, n int64) *runtime.VariantValue {
	return h.MustNew("Constant", runtime.Int(n))
}

func text(s string) func(*runtime.Bindings) (string, error) {
	return func(*runtime.Bindings) (string, error) { return s, nil }
}

func TestRecursiveEvaluation(t *testing.T) {
	f := newFixture(t)
	var eval *Matcher[int64]
	binary := func(op func(a, b int64) int64) func(*runtime.Bindings) (int64, error) {
		return func(env *runtime.Bindings) (int64, error) {
			l, _ := env.Get("l")
			r, _ := env.Get("r")
			a, err := eval.Match(l)
			if err != nil {
				return 0, err
			}
			b, err := eval.Match(r)
			if err != nil {
				return 0, err
			}
			return op(a, b), nil
		}
	}
	var err error
	eval, err = Build(f.expr, []Arm[int64]{
		Case(pattern.Destructure("Constant", pattern.Bind("n")), func(env *runtime.Bindings) (int64, error) {
			return env.Int("n")
		}),
		Case(pattern.Destructure("Addition", pattern.Bind("l"), pattern.Bind("r")), binary(func(a, b int64) int64 { return a + b })),
		Case(pattern.Destructure("Multiplication", pattern.Bind("l"), pattern.Bind("r")), binary(func(a, b int64) int64 { return a * b })),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// 5 * (1 + 2)
	sum := f.expr.MustNew("Addition", constant(f.expr, 1), constant(f.expr, 2))
	product := f.expr.MustNew("Multiplication", constant(f.expr, 5), sum)
	got, err := eval.Match(product)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

func TestFirstMatchWins(t *testing.T) {
	f := newFixture(t)
	m, err := Build(f.expr, []Arm[string]{
		When(pattern.Destructure("Constant", pattern.Bind("n")), func(env *runtime.Bindings) (bool, error) {
			n, err := env.Int("n")
			return n < 0, err
		}, text("negative")),
		Case(pattern.Destructure("Constant", pattern.Lit(runtime.Int(0))), text("zero")),
		Case(pattern.Type("Constant"), text("positive")),
		Case(pattern.Wildcard(), text("compound")),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cases := []struct {
		value runtime.Value
		want  string
	}{
		{constant(f.expr, -4), "negative"},
		{constant(f.expr, 0), "zero"},
		{constant(f.expr, 9), "positive"},
		{f.expr.MustNew("Addition", constant(f.expr, 1), constant(f.expr, 2)), "compound"},
	}
	for _, tc := range cases {
		got, err := m.Match(tc.value)
		if err != nil {
			t.Fatalf("match %s: %v", runtime.Format(tc.value), err)
		}
		if got != tc.want {
			t.Fatalf("match %s: expected %q, got %q", runtime.Format(tc.value), tc.want, got)
		}
	}
}

func TestSelectReportsBindings(t *testing.T) {
	f := newFixture(t)
	m, err := Build(f.expr, []Arm[string]{
		Case(pattern.Record("Addition", pattern.Field("right", pattern.Destructure("Constant", pattern.Bind("k")))).As("whole"), text("add-const")).Named("add-const"),
		Case(pattern.Wildcard(), text("other")),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	value := f.expr.MustNew("Addition", constant(f.expr, 1), constant(f.expr, 7))
	sel, err := m.Select(value)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Arm != 0 || sel.Label != "add-const" {
		t.Fatalf("unexpected selection %d %q", sel.Arm, sel.Label)
	}
	if diff := cmp.Diff([]string{"k", "whole"}, sel.Bindings.Keys()); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
	k, err := sel.Bindings.Int("k")
	if err != nil || k != 7 {
		t.Fatalf("expected k=7, got %d (%v)", k, err)
	}
	whole, _ := sel.Bindings.Get("whole")
	if whole != runtime.Value(value) {
		t.Fatalf("expected whole value to be bound")
	}

	sel, err = m.Select(constant(f.expr, 3))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Arm != 1 || sel.Label != "_" {
		t.Fatalf("unexpected selection %d %q", sel.Arm, sel.Label)
	}
	if len(sel.Bindings.Keys()) != 0 {
		t.Fatalf("failed arms must not leak bindings: %v", sel.Bindings.Keys())
	}
}

func TestMatchInSeesEnclosingBindings(t *testing.T) {
	f := newFixture(t)
	inner, err := Build(f.box, []Arm[string]{
		Case(pattern.Destructure("Full", pattern.Bind("label"), pattern.Wildcard()), func(env *runtime.Bindings) (string, error) {
			label, err := env.Str("label")
			if err != nil {
				return "", err
			}
			n, err := env.Int("n")
			return fmt.Sprintf("%s#%d", label, n), err
		}),
		Case(pattern.Type("Empty"), func(env *runtime.Bindings) (string, error) {
			n, err := env.Int("n")
			return fmt.Sprintf("empty#%d", n), err
		}),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	outer := runtime.NewBindings(nil)
	outer.Define("n", runtime.Int(4))
	outer.Define("label", runtime.Str("outer"))

	got, err := inner.MatchIn(outer, f.box.MustNew("Full", runtime.Str("inner"), runtime.Absent))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != "inner#4" {
		t.Fatalf("expected inner binding to shadow the enclosing one, got %q", got)
	}
	if got, err = inner.MatchIn(outer, f.box.MustNew("Empty")); err != nil || got != "empty#4" {
		t.Fatalf("expected empty#4, got %q (%v)", got, err)
	}
	if diff := cmp.Diff([]string{"label", "n"}, outer.Keys()); diff != "" {
		t.Fatalf("enclosing scope was modified (-want +got):\n%s", diff)
	}
	if label, _ := outer.Str("label"); label != "outer" {
		t.Fatalf("enclosing label overwritten: %q", label)
	}

	if _, err := inner.Match(f.box.MustNew("Empty")); err == nil || !strings.Contains(err.Error(), "unbound name 'n'") {
		t.Fatalf("expected unbound error without an enclosing scope, got %v", err)
	}
}

func TestBuildRejectsNonExhaustive(t *testing.T) {
	f := newFixture(t)
	_, err := Build(f.expr, []Arm[string]{
		Case(pattern.Type("Constant"), text("c")),
		When(pattern.Type("Addition"), func(*runtime.Bindings) (bool, error) { return true, nil }, text("a")),
	})
	var gaps *checker.CoverageGaps
	if !errors.As(err, &gaps) {
		t.Fatalf("expected CoverageGaps, got %v", err)
	}
	if diff := cmp.Diff([]string{"Addition", "Multiplication"}, gaps.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestGuardFailures(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	m, err := Build(f.expr, []Arm[string]{
		When(pattern.Destructure("Constant", pattern.Bind("n")), func(env *runtime.Bindings) (bool, error) {
			n, _ := env.Int("n")
			switch n {
			case 1:
				return false, boom
			case 2:
				panic("bad guard")
			}
			return false, nil
		}, text("guarded")),
		Case(pattern.Wildcard(), text("fallback")),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = m.Match(constant(f.expr, 1))
	var gerr *GuardEvaluationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GuardEvaluationError, got %v", err)
	}
	if gerr.Arm != 0 || !errors.Is(err, boom) {
		t.Fatalf("unexpected guard error %#v", gerr)
	}

	_, err = m.Match(constant(f.expr, 2))
	if !errors.As(err, &gerr) || !strings.Contains(err.Error(), "bad guard") {
		t.Fatalf("expected recovered guard panic, got %v", err)
	}

	got, err := m.Match(constant(f.expr, 3))
	if err != nil || got != "fallback" {
		t.Fatalf("expected fallback, got %q (%v)", got, err)
	}
}

func TestBodyErrorsAreReturnedUnchanged(t *testing.T) {
	f := newFixture(t)
	sentinel := errors.New("body failed")
	m := MustBuild(f.expr, []Arm[int]{
		Case(pattern.Wildcard(), func(*runtime.Bindings) (int, error) { return 0, sentinel }),
	})
	if _, err := m.Match(constant(f.expr, 1)); err != sentinel {
		t.Fatalf("expected sentinel, got %v", err)
	}
}

func TestAbsentValues(t *testing.T) {
	f := newFixture(t)
	strict := MustBuild(f.expr, []Arm[string]{
		Case(pattern.Type("Constant"), text("c")),
		Case(pattern.Type("Addition"), text("a")),
		Case(pattern.Type("Multiplication"), text("m")),
	})
	_, err := strict.Match(runtime.Absent)
	var nerr *NonExhaustiveMatchError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NonExhaustiveMatchError, got %v", err)
	}
	if nerr.Tag != AbsentTag || nerr.Hierarchy != "Expression" {
		t.Fatalf("unexpected error %#v", nerr)
	}

	_, err = Build(f.expr, []Arm[string]{
		Case(pattern.Type("Constant"), text("c")),
		Case(pattern.Type("Addition"), text("a")),
		Case(pattern.Type("Multiplication"), text("m")),
	}, AllowAbsent())
	var nullGap *checker.PossibleNullGap
	if !errors.As(err, &nullGap) {
		t.Fatalf("expected PossibleNullGap, got %v", err)
	}

	lenient := MustBuild(f.expr, []Arm[string]{
		Case(pattern.Null(), text("nothing")),
		Case(pattern.Wildcard(), text("something")),
	}, AllowAbsent())
	for _, v := range []runtime.Value{runtime.Absent, nil} {
		got, err := lenient.Match(v)
		if err != nil || got != "nothing" {
			t.Fatalf("expected nothing, got %q (%v)", got, err)
		}
	}
	if !lenient.AllowsAbsent() || strict.AllowsAbsent() {
		t.Fatalf("AllowsAbsent not recorded")
	}
}

func TestOptionalFields(t *testing.T) {
	f := newFixture(t)
	m, err := Build(f.box, []Arm[string]{
		Case(pattern.Destructure("Full", pattern.Bind("label"), pattern.Null()), func(env *runtime.Bindings) (string, error) {
			label, err := env.Str("label")
			return label + " (no note)", err
		}),
		Case(pattern.Destructure("Full", pattern.Bind("label"), pattern.OfKind(runtime.KindString, "note")), func(env *runtime.Bindings) (string, error) {
			label, _ := env.Str("label")
			note, err := env.Str("note")
			return label + ": " + note, err
		}),
		Case(pattern.Type("Empty"), text("empty")),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cases := []struct {
		value runtime.Value
		want  string
	}{
		{f.box.MustNew("Full", runtime.Str("jar"), runtime.Absent), "jar (no note)"},
		{f.box.MustNew("Full", runtime.Str("jar"), runtime.Str("fragile")), "jar: fragile"},
		{f.box.MustNew("Empty"), "empty"},
	}
	for _, tc := range cases {
		got, err := m.Match(tc.value)
		if err != nil {
			t.Fatalf("match %s: %v", runtime.Format(tc.value), err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestHierarchyMismatch(t *testing.T) {
	f := newFixture(t)
	m := MustBuild(f.expr, []Arm[string]{Case(pattern.Wildcard(), text("any"))})

	for _, v := range []runtime.Value{
		f.box.MustNew("Empty"),
		runtime.Int(3),
		runtime.NewVariant("Expression", "Division"),
	} {
		_, err := m.Match(v)
		var herr *HierarchyMismatchError
		if !errors.As(err, &herr) {
			t.Fatalf("match %s: expected HierarchyMismatchError, got %v", runtime.Format(v), err)
		}
	}
}

func TestPatternValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name    string
		h       *variant.Hierarchy
		pattern pattern.Pattern
		want    string
	}{
		{"unknown variant", f.expr, pattern.Type("Division"), "match: Expression arm 0: hierarchy Expression has no variant Division"},
		{"positional arity", f.expr, pattern.Destructure("Addition", pattern.Wildcard()), "match: Expression arm 0: Addition has 2 fields, pattern lists 1"},
		{"unknown field", f.expr, pattern.Record("Constant", pattern.Field("val", pattern.Wildcard())), "match: Expression arm 0: Constant has no field val"},
		{"repeated field", f.expr, pattern.Record("Constant", pattern.Field("value", pattern.Wildcard()), pattern.Field("value", pattern.Wildcard())), "match: Expression arm 0: Constant field value is listed more than once"},
		{"duplicate binding", f.expr, pattern.Destructure("Addition", pattern.Bind("x"), pattern.Bind("x")), "match: Expression arm 0: name x is bound more than once"},
		{"null on required field", f.expr, pattern.Destructure("Constant", pattern.Null()), "match: Expression arm 0 at Constant.value: null pattern can never match a field that is not optional"},
		{"top-level literal", f.expr, pattern.Lit(runtime.Int(1)), "match: Expression arm 0: literal pattern 1 cannot match a value of hierarchy Expression"},
		{"top-level kind", f.expr, pattern.OfKind(runtime.KindInteger, ""), "match: Expression arm 0: kind pattern integer cannot match a value of hierarchy Expression"},
		{"kind mismatch", f.expr, pattern.Destructure("Constant", pattern.OfKind(runtime.KindString, "s")), "match: Expression arm 0 at Constant.value: kind pattern string s can never match a field of type int"},
		{"literal mismatch", f.expr, pattern.Destructure("Constant", pattern.Lit(runtime.Str("1"))), `match: Expression arm 0 at Constant.value: literal "1" can never match a field of type int`},
		{"variant on scalar field", f.expr, pattern.Destructure("Constant", pattern.Type("Constant")), "match: Expression arm 0 at Constant.value: variant pattern Constant cannot match a field of type int"},
		{"nested path", f.expr, pattern.Destructure("Addition", pattern.Destructure("Constant", pattern.Null()), pattern.Wildcard()), "match: Expression arm 0 at Addition.left/Constant.value: null pattern can never match a field that is not optional"},
		{"missing pattern", f.expr, nil, "match: Expression arm 0: missing pattern"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.h, []Arm[string]{Case(tc.pattern, text("x")), Case(pattern.Wildcard(), text("y"))})
			var perr *PatternError
			if !errors.As(err, &perr) {
				t.Fatalf("expected PatternError, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, err.Error())
			}
		})
	}

	_, err := Build(f.expr, []Arm[string]{{Pattern: pattern.Wildcard()}})
	if err == nil || err.Error() != "match: Expression arm 0: missing body" {
		t.Fatalf("expected missing body error, got %v", err)
	}
}

func TestUnreachableArms(t *testing.T) {
	f := newFixture(t)
	arms := []Arm[string]{
		Case(pattern.Wildcard(), text("any")),
		Case(pattern.Type("Constant"), text("c")),
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, err := Build(f.expr, arms, WithLogger(logger))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	diags := m.Diagnostics()
	if len(diags) != 1 || diags[0].Arm != 1 {
		t.Fatalf("expected one diagnostic for arm 1, got %v", diags)
	}
	if !strings.Contains(logs.String(), "unreachable arm") || !strings.Contains(logs.String(), "hierarchy=Expression") {
		t.Fatalf("expected warning in logs, got %q", logs.String())
	}

	_, err = Build(f.expr, arms, Strict())
	var serr *ShadowedArmError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ShadowedArmError, got %v", err)
	}
	if len(serr.Diagnostics) != 1 {
		t.Fatalf("unexpected diagnostics %v", serr.Diagnostics)
	}
}

func TestMustBuildPanics(t *testing.T) {
	f := newFixture(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustBuild(f.expr, []Arm[string]{Case(pattern.Type("Constant"), text("c"))})
}

func TestConcurrentMatching(t *testing.T) {
	f := newFixture(t)
	m := MustBuild(f.expr, []Arm[string]{
		Case(pattern.Destructure("Constant", pattern.Bind("n")), func(env *runtime.Bindings) (string, error) {
			n, err := env.Int("n")
			return fmt.Sprintf("c%d", n), err
		}),
		Case(pattern.Wildcard(), text("other")),
	})

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := int64(i*100 + j)
				got, err := m.Match(constant(f.expr, n))
				if err != nil {
					errs <- err
					return
				}
				if want := fmt.Sprintf("c%d", n); got != want {
					errs <- fmt.Errorf("expected %s, got %s", want, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

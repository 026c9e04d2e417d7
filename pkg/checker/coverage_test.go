package checker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

func newExpression(t *testing.T) *variant.Hierarchy {
	t.Helper()
	reg := variant.NewRegistry()
	h, err := reg.Declare("Expression",
		variant.V("Constant", variant.F("value", variant.Int())),
		variant.V("Addition", variant.F("left", variant.Ref("Expression")), variant.F("right", variant.Ref("Expression"))),
		variant.V("Multiplication", variant.F("left", variant.Ref("Expression")), variant.F("right", variant.Ref("Expression"))),
	)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	return h
}

func clauses(patterns ...pattern.Pattern) []Clause {
	out := make([]Clause, len(patterns))
	for i, p := range patterns {
		out[i] = Clause{Pattern: p}
	}
	return out
}

func expectGaps(t *testing.T, err error, want ...string) {
	t.Helper()
	var gaps *CoverageGaps
	if !errors.As(err, &gaps) {
		t.Fatalf("expected CoverageGaps, got %v", err)
	}
	if diff := cmp.Diff(want, gaps.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestTypePatternsCoverHierarchy(t *testing.T) {
	h := newExpression(t)
	err := CheckExhaustive(h, clauses(pattern.Type("Constant"), pattern.Type("Addition"), pattern.Type("Multiplication")), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemovingAnyVariantIsReported(t *testing.T) {
	h := newExpression(t)
	all := h.Variants()
	for skip := range all {
		var ps []pattern.Pattern
		for i, name := range all {
			if i != skip {
				ps = append(ps, pattern.Type(name))
			}
		}
		expectGaps(t, CheckExhaustive(h, clauses(ps...), false), all[skip])

		withWildcard := append(ps, pattern.Wildcard())
		if err := CheckExhaustive(h, clauses(withWildcard...), false); err != nil {
			t.Fatalf("wildcard should restore coverage, got %v", err)
		}
	}
}

func TestGuardedArmsDoNotCover(t *testing.T) {
	h := newExpression(t)
	cs := []Clause{
		{Pattern: pattern.Type("Constant"), Guarded: true},
		{Pattern: pattern.Type("Addition")},
		{Pattern: pattern.Type("Multiplication")},
		{Pattern: pattern.Wildcard(), Guarded: true},
	}
	expectGaps(t, CheckExhaustive(h, cs, false), "Constant")
}

func TestNestedDestructuringAcrossArms(t *testing.T) {
	h := newExpression(t)
	arms := []pattern.Pattern{
		pattern.Type("Constant"),
		pattern.Destructure("Addition", pattern.Type("Constant"), pattern.Wildcard()),
		pattern.Destructure("Addition", pattern.Type("Addition"), pattern.Bind("r")),
		pattern.Destructure("Addition", pattern.Type("Multiplication"), pattern.Wildcard()),
		pattern.Record("Multiplication"),
	}
	if err := CheckExhaustive(h, clauses(arms...), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partial := append([]pattern.Pattern{}, arms[:3]...)
	partial = append(partial, arms[4])
	expectGaps(t, CheckExhaustive(h, clauses(partial...), false), "Addition")
}

func TestLiteralSubpatternIsRefutable(t *testing.T) {
	h := newExpression(t)
	arms := []pattern.Pattern{
		pattern.Destructure("Constant", pattern.Lit(runtime.Int(0))),
		pattern.Type("Addition"),
		pattern.Type("Multiplication"),
	}
	expectGaps(t, CheckExhaustive(h, clauses(arms...), false), "Constant")

	arms = append(arms, pattern.Destructure("Constant", pattern.OfKind(runtime.KindInteger, "n")))
	if err := CheckExhaustive(h, clauses(arms...), false); err != nil {
		t.Fatalf("kind pattern should cover integer field: %v", err)
	}
}

func TestBooleanLiteralsAreComplete(t *testing.T) {
	reg := variant.NewRegistry()
	h, err := reg.Declare("Key", variant.V("Press", variant.F("char", variant.String()), variant.F("shift", variant.Bool())))
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	arms := clauses(
		pattern.Destructure("Press", pattern.Bind("c"), pattern.Lit(runtime.Bool(true))),
		pattern.Destructure("Press", pattern.Bind("c"), pattern.Lit(runtime.Bool(false))),
	)
	if err := CheckExhaustive(h, arms, false); err != nil {
		t.Fatalf("true/false should be exhaustive: %v", err)
	}
	expectGaps(t, CheckExhaustive(h, arms[:1], false), "Press")
}

func TestAbsentHandling(t *testing.T) {
	h := newExpression(t)
	typed := []pattern.Pattern{pattern.Type("Constant"), pattern.Type("Addition"), pattern.Type("Multiplication")}

	var gap *PossibleNullGap
	if err := CheckExhaustive(h, clauses(typed...), true); !errors.As(err, &gap) || gap.Hierarchy != "Expression" {
		t.Fatalf("expected PossibleNullGap, got %v", err)
	}
	if err := CheckExhaustive(h, clauses(append(typed, pattern.Null())...), true); err != nil {
		t.Fatalf("null arm should close the gap: %v", err)
	}
	if err := CheckExhaustive(h, clauses(pattern.Null(), pattern.Wildcard()), true); err != nil {
		t.Fatalf("wildcard should cover everything: %v", err)
	}
	if err := CheckExhaustive(h, clauses(typed...), false); err != nil {
		t.Fatalf("absence not allowed, expected ok: %v", err)
	}
	// Coverage gaps are reported before the null gap.
	expectGaps(t, CheckExhaustive(h, clauses(typed[:2]...), true), "Multiplication")
}

func TestOptionalFieldNeedsNullOrWildcard(t *testing.T) {
	reg := variant.NewRegistry()
	h, err := reg.Declare("Box", variant.V("Box", variant.Opt("label", variant.String())))
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	kindOnly := pattern.Destructure("Box", pattern.OfKind(runtime.KindString, "s"))
	expectGaps(t, CheckExhaustive(h, clauses(kindOnly), false), "Box")

	withNull := clauses(kindOnly, pattern.Destructure("Box", pattern.Null()))
	if err := CheckExhaustive(h, withNull, false); err != nil {
		t.Fatalf("string + null should cover optional field: %v", err)
	}
	if err := CheckExhaustive(h, clauses(pattern.Destructure("Box", pattern.Bind("label"))), false); err != nil {
		t.Fatalf("binding matches absent too: %v", err)
	}
}

func TestLintReportsShadowedArms(t *testing.T) {
	h := newExpression(t)
	cs := []Clause{
		{Pattern: pattern.Type("Constant").As("c")},
		{Pattern: pattern.Destructure("Constant", pattern.Bind("v")), Guarded: true},
		{Pattern: pattern.Destructure("Addition", pattern.Type("Constant"), pattern.Wildcard()), Guarded: true},
		{Pattern: pattern.Type("Addition")},
		{Pattern: pattern.Wildcard()},
		{Pattern: pattern.Type("Multiplication")},
		{Pattern: pattern.Null()},
	}
	diags := Lint(h, cs)
	var arms []int
	for _, d := range diags {
		arms = append(arms, d.Arm)
	}
	if diff := cmp.Diff([]int{1, 5, 6}, arms); diff != "" {
		t.Fatalf("shadowed arms mismatch (-want +got):\n%s", diff)
	}
	if got := diags[0].String(); got != "arm 1 (Constant(var v)): unreachable: every value it matches is matched by an earlier arm" {
		t.Fatalf("unexpected diagnostic text %q", got)
	}
}

func TestLintIgnoresGuardedPredecessors(t *testing.T) {
	h := newExpression(t)
	cs := []Clause{
		{Pattern: pattern.Type("Constant"), Guarded: true},
		{Pattern: pattern.Type("Constant")},
		{Pattern: pattern.Null()},
		{Pattern: pattern.Wildcard()},
	}
	if diags := Lint(h, cs); len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

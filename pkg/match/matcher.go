// Package match builds matchers over a variant hierarchy: an ordered list of
// arms, checked for exhaustiveness when built and then applied to values
// first-match-wins.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"variantmatch/pkg/checker"
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

// Guard is an extra predicate evaluated with an arm's bindings after its
// pattern matched.
type Guard func(env *runtime.Bindings) (bool, error)

// Arm is one pattern, an optional guard and a body.
type Arm[R any] struct {
	Pattern pattern.Pattern
	Guard   Guard
	Body    func(env *runtime.Bindings) (R, error)
	Label   string
}

// Case returns an unguarded arm.
func Case[R any](p pattern.Pattern, body func(env *runtime.Bindings) (R, error)) Arm[R] {
	return Arm[R]{Pattern: p, Body: body}
}

// When returns a guarded arm.
func When[R any](p pattern.Pattern, guard Guard, body func(env *runtime.Bindings) (R, error)) Arm[R] {
	return Arm[R]{Pattern: p, Guard: guard, Body: body}
}

// Named returns a copy of the arm with the given label.
func (a Arm[R]) Named(label string) Arm[R] {
	a.Label = label
	return a
}

type options struct {
	allowAbsent bool
	strict      bool
	logger      *slog.Logger
}

// Option configures Build.
type Option func(*options)

// AllowAbsent declares that the matcher may receive the absence sentinel, so
// it needs a null or wildcard arm.
func AllowAbsent() Option {
	return func(o *options) { o.allowAbsent = true }
}

// Strict makes unreachable arms a build error instead of a warning.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// WithLogger sets the logger for build diagnostics and match tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type compiledArm[R any] struct {
	root  *node
	guard Guard
	body  func(env *runtime.Bindings) (R, error)
	label string
}

// Matcher is an immutable, exhaustiveness-checked list of arms. It is safe
// for concurrent use.
type Matcher[R any] struct {
	hierarchy   *variant.Hierarchy
	arms        []compiledArm[R]
	allowAbsent bool
	diagnostics []checker.Diagnostic
	logger      *slog.Logger
}

// Selection is the arm chosen for a value together with its bindings.
type Selection struct {
	Arm      int
	Label    string
	Bindings *runtime.Bindings
}

// Build validates every arm against h and runs the exhaustiveness check.
// A matcher that fails the check is never returned.
func Build[R any](h *variant.Hierarchy, arms []Arm[R], opts ...Option) (*Matcher[R], error) {
	if h == nil {
		return nil, errors.New("match: nil hierarchy")
	}
	o := options{logger: discard}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Matcher[R]{
		hierarchy:   h,
		arms:        make([]compiledArm[R], len(arms)),
		allowAbsent: o.allowAbsent,
		logger:      o.logger.With("hierarchy", h.Name()),
	}
	clauses := make([]checker.Clause, len(arms))
	for i, arm := range arms {
		c := &compiler{root: h, arm: i}
		root, err := c.compileArm(arm.Pattern)
		if err != nil {
			return nil, err
		}
		if arm.Body == nil {
			return nil, c.fail("", "missing body")
		}
		label := arm.Label
		if label == "" {
			label = arm.Pattern.String()
		}
		m.arms[i] = compiledArm[R]{root: root, guard: arm.Guard, body: arm.Body, label: label}
		clauses[i] = checker.Clause{Pattern: arm.Pattern, Guarded: arm.Guard != nil}
	}

	if err := checker.CheckExhaustive(h, clauses, o.allowAbsent); err != nil {
		m.logger.Debug("matcher rejected", "error", err)
		return nil, err
	}
	m.diagnostics = checker.Lint(h, clauses)
	for _, d := range m.diagnostics {
		m.logger.Warn("unreachable arm", "arm", d.Arm, "pattern", d.Node.String())
	}
	if o.strict && len(m.diagnostics) > 0 {
		return nil, &ShadowedArmError{Hierarchy: h.Name(), Diagnostics: m.diagnostics}
	}
	m.logger.Debug("matcher built", "arms", len(arms), "allow_absent", o.allowAbsent)
	return m, nil
}

// MustBuild is like Build but panics on error. It is meant for package-level
// matchers whose arms are fixed at compile time.
func MustBuild[R any](h *variant.Hierarchy, arms []Arm[R], opts ...Option) *Matcher[R] {
	m, err := Build(h, arms, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher[R]) AllowsAbsent() bool { return m.allowAbsent }

// Diagnostics returns the unreachable-arm warnings found at build time.
func (m *Matcher[R]) Diagnostics() []checker.Diagnostic {
	return append([]checker.Diagnostic(nil), m.diagnostics...)
}

// Match selects the first arm whose pattern matches and whose guard holds,
// then runs its body. Body errors are returned unchanged.
func (m *Matcher[R]) Match(value runtime.Value) (R, error) {
	return m.MatchIn(nil, value)
}

// MatchIn is Match with the arm's bindings opened in a child of scope, so a
// body can read names bound by an enclosing match.
func (m *Matcher[R]) MatchIn(scope *runtime.Bindings, value runtime.Value) (R, error) {
	idx, env, err := m.selectArm(scope, value)
	if err != nil {
		var zero R
		return zero, err
	}
	return m.arms[idx].body(env)
}

// Select reports which arm Match would run, without running it.
func (m *Matcher[R]) Select(value runtime.Value) (Selection, error) {
	idx, env, err := m.selectArm(nil, value)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Arm: idx, Label: m.arms[idx].label, Bindings: env}, nil
}

func (m *Matcher[R]) selectArm(scope *runtime.Bindings, value runtime.Value) (int, *runtime.Bindings, error) {
	if value == nil {
		value = runtime.Absent
	}
	if err := m.admit(value); err != nil {
		return 0, nil, err
	}
	for i := range m.arms {
		arm := &m.arms[i]
		env := scope.Extend()
		if !arm.root.bind(value, env) {
			continue
		}
		if arm.guard != nil {
			ok, err := runGuard(arm.guard, env)
			if err != nil {
				return 0, nil, &GuardEvaluationError{Hierarchy: m.hierarchy.Name(), Arm: i, Label: arm.label, Err: err}
			}
			if !ok {
				continue
			}
		}
		if m.logger.Enabled(context.Background(), slog.LevelDebug) {
			m.logger.Debug("arm selected", "arm", i, "label", arm.label, "tag", tagOf(value))
		}
		return i, env, nil
	}
	return 0, nil, &NonExhaustiveMatchError{Hierarchy: m.hierarchy.Name(), Tag: tagOf(value)}
}

func (m *Matcher[R]) admit(value runtime.Value) error {
	if runtime.IsAbsent(value) {
		return nil
	}
	vv, ok := value.(*runtime.VariantValue)
	if !ok {
		return &HierarchyMismatchError{Hierarchy: m.hierarchy.Name(), Got: value.Kind().String() + " value"}
	}
	if vv.Hierarchy() != m.hierarchy.Name() || !m.hierarchy.Has(vv.Tag()) {
		return &HierarchyMismatchError{Hierarchy: m.hierarchy.Name(), Got: vv.Hierarchy() + "." + vv.Tag()}
	}
	return nil
}

// runGuard turns a guard panic into an error.
func runGuard(g Guard, env *runtime.Bindings) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if e, isErr := r.(error); isErr {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()
	return g(env)
}

func tagOf(value runtime.Value) string {
	if vv, ok := value.(*runtime.VariantValue); ok {
		return vv.Tag()
	}
	return AbsentTag
}

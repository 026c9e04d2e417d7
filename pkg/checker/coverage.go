package checker

import (
	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

// Clause is the part of a match arm the checker looks at.
type Clause struct {
	Pattern pattern.Pattern
	Guarded bool
}

// CheckExhaustive verifies that the unguarded clauses cover every variant of
// h. Guarded clauses never count toward coverage. When allowAbsent is set the
// clauses must also handle the absence sentinel.
func CheckExhaustive(h *variant.Hierarchy, clauses []Clause, allowAbsent bool) error {
	s := &space{root: h}
	rows := unguardedRows(clauses)
	top := []column{{typ: variant.Ref(h.Name()), optional: allowAbsent}}

	var missing []string
	for _, name := range h.Variants() {
		if s.useful(rows, top, row{pattern.Type(name)}) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &CoverageGaps{Hierarchy: h.Name(), Missing: missing}
	}
	if allowAbsent && s.useful(rows, top, row{pattern.Null()}) {
		return &PossibleNullGap{Hierarchy: h.Name()}
	}
	return nil
}

// Lint reports arms that can never be selected because earlier unguarded
// arms already match everything they match. This is separate from coverage.
func Lint(h *variant.Hierarchy, clauses []Clause) []Diagnostic {
	s := &space{root: h}
	top := []column{{typ: variant.Ref(h.Name()), optional: true}}
	var diags []Diagnostic
	var prior []row
	for idx, c := range clauses {
		if c.Pattern == nil {
			continue
		}
		if !s.useful(prior, top, row{c.Pattern}) {
			diags = append(diags, Diagnostic{
				Message: "unreachable: every value it matches is matched by an earlier arm",
				Arm:     idx,
				Node:    c.Pattern,
			})
		}
		if !c.Guarded {
			prior = append(prior, row{c.Pattern})
		}
	}
	return diags
}

func unguardedRows(clauses []Clause) []row {
	rows := make([]row, 0, len(clauses))
	for _, c := range clauses {
		if c.Guarded || c.Pattern == nil {
			continue
		}
		rows = append(rows, row{c.Pattern})
	}
	return rows
}

type row []pattern.Pattern

type column struct {
	typ      variant.FieldType
	optional bool
}

// ctor is a head constructor: a variant of a hierarchy or a scalar literal.
type ctor struct {
	variant *variant.Variant
	lit     runtime.Value
}

func (c ctor) arity() int {
	if c.variant != nil {
		return c.variant.Arity()
	}
	return 0
}

var wild = pattern.Wildcard()

// space implements the pattern-matrix usefulness test: q is useful with
// respect to rows when some value matched by q is matched by no row.
type space struct {
	root *variant.Hierarchy
}

func (s *space) useful(rows []row, cols []column, q row) bool {
	if len(cols) == 0 {
		return len(rows) == 0
	}
	col := cols[0]
	if col.optional {
		present := append([]column{{typ: col.typ}}, cols[1:]...)
		switch q[0].(type) {
		case *pattern.NullPattern:
			return s.useful(absentRows(rows), cols[1:], q[1:])
		case *pattern.WildcardPattern:
			if s.useful(absentRows(rows), cols[1:], q[1:]) {
				return true
			}
			return s.useful(rows, present, q)
		default:
			return s.useful(rows, present, q)
		}
	}

	head, ok := normalize(q[0], col)
	if !ok {
		return false
	}
	q = append(row{head}, q[1:]...)
	rows = normalizeRows(rows, col)

	if _, isWild := head.(*pattern.WildcardPattern); isWild {
		ctors, complete := s.signature(rows, col)
		if !complete {
			return s.useful(defaultRows(rows), cols[1:], q[1:])
		}
		for _, c := range ctors {
			if s.usefulFor(rows, cols, q, c) {
				return true
			}
		}
		return false
	}

	c, ok := s.ctorOf(head, col)
	if !ok {
		return false
	}
	return s.usefulFor(rows, cols, q, c)
}

func (s *space) usefulFor(rows []row, cols []column, q row, c ctor) bool {
	sq, ok := specializeRow(q, c)
	if !ok {
		return false
	}
	var srows []row
	for _, r := range rows {
		if sr, ok := specializeRow(r, c); ok {
			srows = append(srows, sr)
		}
	}
	return s.useful(srows, append(fieldColumns(c), cols[1:]...), sq)
}

// signature returns every constructor of the column type and whether the
// heads in rows mention all of them.
func (s *space) signature(rows []row, col column) ([]ctor, bool) {
	switch col.typ.Kind {
	case variant.FieldRef:
		h, ok := s.root.Resolve(col.typ.Ref)
		if !ok {
			return nil, false
		}
		seen := make(map[string]bool)
		for _, r := range rows {
			switch p := r[0].(type) {
			case *pattern.TypePattern:
				seen[p.Variant] = true
			case *pattern.DestructurePattern:
				seen[p.Variant] = true
			}
		}
		ctors := make([]ctor, 0, h.Len())
		for _, name := range h.Variants() {
			if !seen[name] {
				return nil, false
			}
			v, _ := h.Variant(name)
			ctors = append(ctors, ctor{variant: v})
		}
		return ctors, true
	case variant.FieldBool:
		var sawTrue, sawFalse bool
		for _, r := range rows {
			if lit, ok := r[0].(*pattern.LiteralPattern); ok {
				if b, ok := lit.Value.(runtime.BoolValue); ok {
					if b.Val {
						sawTrue = true
					} else {
						sawFalse = true
					}
				}
			}
		}
		if sawTrue && sawFalse {
			return []ctor{{lit: runtime.Bool(true)}, {lit: runtime.Bool(false)}}, true
		}
	}
	return nil, false
}

func (s *space) ctorOf(p pattern.Pattern, col column) (ctor, bool) {
	var name string
	switch pat := p.(type) {
	case *pattern.LiteralPattern:
		return ctor{lit: pat.Value}, true
	case *pattern.TypePattern:
		name = pat.Variant
	case *pattern.DestructurePattern:
		name = pat.Variant
	default:
		return ctor{}, false
	}
	if col.typ.Kind != variant.FieldRef {
		return ctor{}, false
	}
	h, ok := s.root.Resolve(col.typ.Ref)
	if !ok {
		return ctor{}, false
	}
	v, ok := h.Variant(name)
	if !ok {
		return ctor{}, false
	}
	return ctor{variant: v}, true
}

// normalize rewrites a head pattern for a column that cannot hold absent:
// kind patterns of the column's kind become wildcards, patterns that can
// only match absent or another kind report false.
func normalize(p pattern.Pattern, col column) (pattern.Pattern, bool) {
	switch pat := p.(type) {
	case *pattern.NullPattern:
		return nil, false
	case *pattern.KindPattern:
		if pat.Kind == col.typ.ValueKind() {
			return wild, true
		}
		return nil, false
	}
	return p, true
}

func normalizeRows(rows []row, col column) []row {
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		head, ok := normalize(r[0], col)
		if !ok {
			continue
		}
		out = append(out, append(row{head}, r[1:]...))
	}
	return out
}

// absentRows keeps the rows whose head matches the absence sentinel.
func absentRows(rows []row) []row {
	var out []row
	for _, r := range rows {
		switch r[0].(type) {
		case *pattern.NullPattern, *pattern.WildcardPattern:
			out = append(out, r[1:])
		}
	}
	return out
}

func defaultRows(rows []row) []row {
	var out []row
	for _, r := range rows {
		if _, ok := r[0].(*pattern.WildcardPattern); ok {
			out = append(out, r[1:])
		}
	}
	return out
}

func specializeRow(r row, c ctor) (row, bool) {
	rest := r[1:]
	switch p := r[0].(type) {
	case *pattern.WildcardPattern:
		return append(wildcards(c.arity()), rest...), true
	case *pattern.TypePattern:
		if c.variant != nil && p.Variant == c.variant.Name() {
			return append(wildcards(c.arity()), rest...), true
		}
	case *pattern.DestructurePattern:
		if c.variant != nil && p.Variant == c.variant.Name() {
			return append(subpatterns(p, c.variant), rest...), true
		}
	case *pattern.LiteralPattern:
		if c.lit != nil && runtime.Equal(p.Value, c.lit) {
			return append(row{}, rest...), true
		}
	}
	return nil, false
}

// subpatterns lays a destructuring pattern's fields out in declaration order.
func subpatterns(p *pattern.DestructurePattern, v *variant.Variant) row {
	out := wildcards(v.Arity())
	for i, f := range p.Fields {
		if f == nil || f.Pattern == nil {
			continue
		}
		idx := i
		if !p.IsPositional {
			var ok bool
			if idx, ok = v.FieldIndex(f.Name); !ok {
				continue
			}
		}
		if idx < len(out) {
			out[idx] = f.Pattern
		}
	}
	return out
}

func fieldColumns(c ctor) []column {
	if c.variant == nil {
		return nil
	}
	cols := make([]column, c.variant.Arity())
	for i := range cols {
		spec := c.variant.FieldAt(i)
		cols[i] = column{typ: spec.Type, optional: spec.Optional}
	}
	return cols
}

func wildcards(n int) row {
	out := make(row, n)
	for i := range out {
		out[i] = wild
	}
	return out
}

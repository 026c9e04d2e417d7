package match

import (
	"fmt"

	"variantmatch/pkg/pattern"
	"variantmatch/pkg/runtime"
	"variantmatch/pkg/variant"
)

// node is a pattern resolved against the hierarchy: named fields become
// positions so matching never has to look anything up.
type node struct {
	kind      pattern.NodeType
	hierarchy string
	variant   string
	binding   string
	fields    []fieldNode
	valueKind runtime.Kind
	literal   runtime.Value
}

type fieldNode struct {
	index int
	node  *node
}

type compiler struct {
	root *variant.Hierarchy
	arm  int
}

func (c *compiler) fail(path, format string, args ...any) error {
	return &PatternError{Hierarchy: c.root.Name(), Arm: c.arm, Path: path, Message: fmt.Sprintf(format, args...)}
}

func (c *compiler) compileArm(p pattern.Pattern) (*node, error) {
	if p == nil {
		return nil, c.fail("", "missing pattern")
	}
	seen := make(map[string]bool)
	for _, name := range pattern.Names(p) {
		if seen[name] {
			return nil, c.fail("", "name %s is bound more than once", name)
		}
		seen[name] = true
	}
	return c.compile(p, variant.Ref(c.root.Name()), true, "")
}

func (c *compiler) compile(p pattern.Pattern, typ variant.FieldType, optional bool, path string) (*node, error) {
	top := path == ""
	switch pat := p.(type) {
	case *pattern.WildcardPattern:
		return &node{kind: pattern.NodeWildcardPattern, binding: pat.Binding}, nil
	case *pattern.NullPattern:
		if !optional {
			return nil, c.fail(path, "null pattern can never match a field that is not optional")
		}
		return &node{kind: pattern.NodeNullPattern}, nil
	case *pattern.TypePattern:
		h, err := c.variantOf(pat.Variant, typ, path)
		if err != nil {
			return nil, err
		}
		return &node{kind: pattern.NodeTypePattern, hierarchy: h.Name(), variant: pat.Variant, binding: pat.Binding}, nil
	case *pattern.DestructurePattern:
		return c.compileDestructure(pat, typ, path)
	case *pattern.KindPattern:
		if top {
			return nil, c.fail(path, "kind pattern %s cannot match a value of hierarchy %s", pat, c.root.Name())
		}
		if pat.Kind != typ.ValueKind() {
			return nil, c.fail(path, "kind pattern %s can never match a field of type %s", pat, typ)
		}
		return &node{kind: pattern.NodeKindPattern, valueKind: pat.Kind, binding: pat.Binding}, nil
	case *pattern.LiteralPattern:
		if top {
			return nil, c.fail(path, "literal pattern %s cannot match a value of hierarchy %s", pat, c.root.Name())
		}
		if runtime.IsAbsent(pat.Value) {
			return nil, c.fail(path, "literal pattern has no value; use a null pattern")
		}
		if pat.Value.Kind() != typ.ValueKind() {
			return nil, c.fail(path, "literal %s can never match a field of type %s", pat, typ)
		}
		return &node{kind: pattern.NodeLiteralPattern, literal: pat.Value}, nil
	case nil:
		return nil, c.fail(path, "missing pattern")
	default:
		return nil, c.fail(path, "unsupported pattern %s", p.NodeType())
	}
}

func (c *compiler) variantOf(name string, typ variant.FieldType, path string) (*variant.Hierarchy, error) {
	if typ.Kind != variant.FieldRef {
		return nil, c.fail(path, "variant pattern %s cannot match a field of type %s", name, typ)
	}
	h, ok := c.root.Resolve(typ.Ref)
	if !ok {
		return nil, c.fail(path, "unknown hierarchy %s", typ.Ref)
	}
	if !h.Has(name) {
		return nil, c.fail(path, "hierarchy %s has no variant %s", h.Name(), name)
	}
	return h, nil
}

func (c *compiler) compileDestructure(pat *pattern.DestructurePattern, typ variant.FieldType, path string) (*node, error) {
	h, err := c.variantOf(pat.Variant, typ, path)
	if err != nil {
		return nil, err
	}
	v, _ := h.Variant(pat.Variant)
	if pat.IsPositional && len(pat.Fields) != v.Arity() {
		return nil, c.fail(path, "%s has %d fields, pattern lists %d", pat.Variant, v.Arity(), len(pat.Fields))
	}

	n := &node{kind: pattern.NodeDestructurePattern, hierarchy: h.Name(), variant: pat.Variant, binding: pat.Binding}
	used := make(map[int]bool, len(pat.Fields))
	for i, field := range pat.Fields {
		if field == nil {
			return nil, c.fail(path, "%s field %d has no pattern", pat.Variant, i)
		}
		idx := i
		if !pat.IsPositional {
			var ok bool
			idx, ok = v.FieldIndex(field.Name)
			if !ok {
				return nil, c.fail(path, "%s has no field %s", pat.Variant, field.Name)
			}
			if used[idx] {
				return nil, c.fail(path, "%s field %s is listed more than once", pat.Variant, field.Name)
			}
		}
		used[idx] = true
		spec := v.FieldAt(idx)
		sub, err := c.compile(field.Pattern, spec.Type, spec.Optional, joinPath(path, pat.Variant, spec.Name))
		if err != nil {
			return nil, err
		}
		n.fields = append(n.fields, fieldNode{index: idx, node: sub})
	}
	return n, nil
}

func joinPath(path, variantName, field string) string {
	if path == "" {
		return variantName + "." + field
	}
	return path + "/" + variantName + "." + field
}

// bind tests value against the node, defining captured names in env. A false
// result may leave partial bindings behind; callers discard env then.
func (n *node) bind(value runtime.Value, env *runtime.Bindings) bool {
	switch n.kind {
	case pattern.NodeWildcardPattern:
		if n.binding != "" {
			env.Define(n.binding, value)
		}
		return true
	case pattern.NodeNullPattern:
		return runtime.IsAbsent(value)
	case pattern.NodeTypePattern:
		if !n.isVariant(value) {
			return false
		}
		if n.binding != "" {
			env.Define(n.binding, value)
		}
		return true
	case pattern.NodeDestructurePattern:
		if !n.isVariant(value) {
			return false
		}
		vv := value.(*runtime.VariantValue)
		for _, f := range n.fields {
			if f.index >= vv.NumFields() {
				return false
			}
			if !f.node.bind(vv.FieldAt(f.index).Value, env) {
				return false
			}
		}
		if n.binding != "" {
			env.Define(n.binding, value)
		}
		return true
	case pattern.NodeKindPattern:
		if runtime.IsAbsent(value) || value.Kind() != n.valueKind {
			return false
		}
		if n.binding != "" {
			env.Define(n.binding, value)
		}
		return true
	case pattern.NodeLiteralPattern:
		return runtime.Equal(n.literal, value)
	}
	return false
}

func (n *node) isVariant(value runtime.Value) bool {
	vv, ok := value.(*runtime.VariantValue)
	return ok && vv.Hierarchy() == n.hierarchy && vv.Tag() == n.variant
}

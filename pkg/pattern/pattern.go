package pattern

import (
	"strings"

	"variantmatch/pkg/runtime"
)

type NodeType string

const (
	NodeTypePattern        NodeType = "TypePattern"
	NodeDestructurePattern NodeType = "DestructurePattern"
	NodeNullPattern        NodeType = "NullPattern"
	NodeWildcardPattern    NodeType = "WildcardPattern"
	NodeKindPattern        NodeType = "KindPattern"
	NodeLiteralPattern     NodeType = "LiteralPattern"
)

// Pattern is a rule for testing and destructuring a value.
type Pattern interface {
	NodeType() NodeType
	String() string
	patternNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) patternNode()         {}

// TypePattern matches a value whose variant tag equals Variant.
type TypePattern struct {
	nodeImpl

	Variant string `json:"variant"`
	Binding string `json:"binding,omitempty"`
}

func NewTypePattern(variant, binding string) *TypePattern {
	return &TypePattern{nodeImpl: newNodeImpl(NodeTypePattern), Variant: variant, Binding: binding}
}

func (p *TypePattern) String() string {
	if p.Binding == "" {
		return p.Variant
	}
	return p.Variant + " " + p.Binding
}

// As returns a copy of the pattern that binds the whole value to name.
func (p *TypePattern) As(name string) *TypePattern {
	return NewTypePattern(p.Variant, name)
}

// FieldPattern is one field sub-pattern of a destructuring pattern. Name is
// empty for positional patterns.
type FieldPattern struct {
	Name    string  `json:"name,omitempty"`
	Pattern Pattern `json:"pattern"`
}

func NewFieldPattern(name string, pattern Pattern) *FieldPattern {
	return &FieldPattern{Name: name, Pattern: pattern}
}

// DestructurePattern matches a variant tag and then each listed field.
// Positional patterns must list every field; named patterns may list a
// subset, unlisted fields match anything.
type DestructurePattern struct {
	nodeImpl

	Variant      string          `json:"variant"`
	Fields       []*FieldPattern `json:"fields"`
	IsPositional bool            `json:"isPositional"`
	Binding      string          `json:"binding,omitempty"`
}

func NewDestructurePattern(variant string, fields []*FieldPattern, isPositional bool, binding string) *DestructurePattern {
	return &DestructurePattern{nodeImpl: newNodeImpl(NodeDestructurePattern), Variant: variant, Fields: fields, IsPositional: isPositional, Binding: binding}
}

func (p *DestructurePattern) String() string {
	var b strings.Builder
	b.WriteString(p.Variant)
	b.WriteByte('(')
	for i, f := range p.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if f == nil {
			b.WriteString("<nil>")
			continue
		}
		if f.Name != "" {
			b.WriteString(f.Name)
			b.WriteString(": ")
		}
		if f.Pattern == nil {
			b.WriteString("<nil>")
		} else {
			b.WriteString(f.Pattern.String())
		}
	}
	b.WriteByte(')')
	if p.Binding != "" {
		b.WriteString(" ")
		b.WriteString(p.Binding)
	}
	return b.String()
}

// As returns a copy of the pattern that also binds the whole value to name.
func (p *DestructurePattern) As(name string) *DestructurePattern {
	return NewDestructurePattern(p.Variant, p.Fields, p.IsPositional, name)
}

// NullPattern matches only the absence sentinel.
type NullPattern struct {
	nodeImpl
}

func NewNullPattern() *NullPattern {
	return &NullPattern{nodeImpl: newNodeImpl(NodeNullPattern)}
}

func (p *NullPattern) String() string { return "null" }

// WildcardPattern matches every value, absence included, optionally binding it.
type WildcardPattern struct {
	nodeImpl

	Binding string `json:"binding,omitempty"`
}

func NewWildcardPattern(binding string) *WildcardPattern {
	return &WildcardPattern{nodeImpl: newNodeImpl(NodeWildcardPattern), Binding: binding}
}

func (p *WildcardPattern) String() string {
	if p.Binding == "" {
		return "_"
	}
	return "var " + p.Binding
}

// KindPattern matches a non-absent value of the given runtime kind. It is
// used at field positions, e.g. `Request(string method, ...)`.
type KindPattern struct {
	nodeImpl

	Kind    runtime.Kind `json:"kind"`
	Binding string       `json:"binding,omitempty"`
}

func NewKindPattern(kind runtime.Kind, binding string) *KindPattern {
	return &KindPattern{nodeImpl: newNodeImpl(NodeKindPattern), Kind: kind, Binding: binding}
}

func (p *KindPattern) String() string {
	if p.Binding == "" {
		return p.Kind.String()
	}
	return p.Kind.String() + " " + p.Binding
}

// LiteralPattern matches a value structurally equal to Value.
type LiteralPattern struct {
	nodeImpl

	Value runtime.Value `json:"value"`
}

func NewLiteralPattern(value runtime.Value) *LiteralPattern {
	return &LiteralPattern{nodeImpl: newNodeImpl(NodeLiteralPattern), Value: value}
}

func (p *LiteralPattern) String() string { return runtime.Format(p.Value) }

// Names returns every binding name introduced by p, depth first, duplicates
// included.
func Names(p Pattern) []string {
	var names []string
	collectNames(p, &names)
	return names
}

func collectNames(p Pattern, into *[]string) {
	switch pat := p.(type) {
	case *TypePattern:
		if pat.Binding != "" {
			*into = append(*into, pat.Binding)
		}
	case *DestructurePattern:
		if pat.Binding != "" {
			*into = append(*into, pat.Binding)
		}
		for _, f := range pat.Fields {
			if f != nil && f.Pattern != nil {
				collectNames(f.Pattern, into)
			}
		}
	case *WildcardPattern:
		if pat.Binding != "" {
			*into = append(*into, pat.Binding)
		}
	case *KindPattern:
		if pat.Binding != "" {
			*into = append(*into, pat.Binding)
		}
	}
}

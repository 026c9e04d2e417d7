package variant

import (
	"fmt"

	"variantmatch/pkg/runtime"
)

// Hierarchy is a named, closed set of variants.
type Hierarchy struct {
	name     string
	registry *Registry
	variants []*Variant
	byName   map[string]*Variant
}

// Variant is one record-shaped alternative of a hierarchy.
type Variant struct {
	name      string
	hierarchy string
	fields    []FieldSpec
	index     map[string]int
}

func (h *Hierarchy) Name() string { return h.name }

func (h *Hierarchy) Len() int { return len(h.variants) }

// Variants returns the variant names in declaration order.
func (h *Hierarchy) Variants() []string {
	names := make([]string, len(h.variants))
	for i, v := range h.variants {
		names[i] = v.name
	}
	return names
}

// Variant returns the declaration of a variant by name.
func (h *Hierarchy) Variant(name string) (*Variant, bool) {
	v, ok := h.byName[name]
	return v, ok
}

func (h *Hierarchy) Has(name string) bool {
	_, ok := h.byName[name]
	return ok
}

// Resolve finds a referenced hierarchy: the hierarchy itself or one already
// declared in the same registry.
func (h *Hierarchy) Resolve(name string) (*Hierarchy, bool) {
	if name == h.name {
		return h, true
	}
	if h.registry == nil {
		return nil, false
	}
	return h.registry.Lookup(name)
}

func (v *Variant) Name() string { return v.name }

func (v *Variant) Hierarchy() string { return v.hierarchy }

func (v *Variant) Arity() int { return len(v.fields) }

// Fields returns a copy of the field declarations.
func (v *Variant) Fields() []FieldSpec {
	return append([]FieldSpec(nil), v.fields...)
}

func (v *Variant) FieldAt(i int) FieldSpec { return v.fields[i] }

// FieldIndex returns the position of a named field.
func (v *Variant) FieldIndex(name string) (int, bool) {
	idx, ok := v.index[name]
	return idx, ok
}

// New constructs a validated instance of the tagged variant. Field values are
// positional and must match the declaration exactly.
func (h *Hierarchy) New(tag string, values ...runtime.Value) (*runtime.VariantValue, error) {
	v, ok := h.byName[tag]
	if !ok {
		return nil, &UnknownVariantError{Hierarchy: h.name, Variant: tag, Known: h.Variants()}
	}
	if len(values) != len(v.fields) {
		return nil, &FieldMismatchError{
			Hierarchy: h.name,
			Variant:   tag,
			Message:   fmt.Sprintf("expected %d fields, got %d", len(v.fields), len(values)),
		}
	}
	fields := make([]runtime.Field, len(values))
	for i, spec := range v.fields {
		val := values[i]
		if val == nil {
			val = runtime.Absent
		}
		if runtime.IsAbsent(val) {
			if !spec.Optional {
				return nil, &FieldMismatchError{Hierarchy: h.name, Variant: tag, Field: spec.Name, Message: "value is absent but the field is not optional"}
			}
		} else if err := h.checkValue(spec.Type, val); err != nil {
			return nil, &FieldMismatchError{Hierarchy: h.name, Variant: tag, Field: spec.Name, Message: err.Error()}
		}
		fields[i] = runtime.Field{Name: spec.Name, Value: val}
	}
	return runtime.NewVariant(h.name, tag, fields...), nil
}

// MustNew is New for statically known data; it panics on error.
func (h *Hierarchy) MustNew(tag string, values ...runtime.Value) *runtime.VariantValue {
	val, err := h.New(tag, values...)
	if err != nil {
		panic(err)
	}
	return val
}

// Contains reports whether val is an instance of one of h's variants.
func (h *Hierarchy) Contains(val runtime.Value) bool {
	vv, ok := val.(*runtime.VariantValue)
	return ok && vv.Hierarchy() == h.name && h.Has(vv.Tag())
}

func (h *Hierarchy) checkValue(t FieldType, val runtime.Value) error {
	if runtime.IsAbsent(val) {
		return fmt.Errorf("absent value where %s is required", t)
	}
	if val.Kind() != t.ValueKind() {
		return fmt.Errorf("expected %s, got %s", t, val.Kind())
	}
	switch t.Kind {
	case FieldRef:
		target, ok := h.Resolve(t.Ref)
		if !ok {
			return fmt.Errorf("unknown hierarchy %s", t.Ref)
		}
		if !target.Contains(val) {
			vv := val.(*runtime.VariantValue)
			return fmt.Errorf("expected %s, got %s.%s", t.Ref, vv.Hierarchy(), vv.Tag())
		}
	case FieldSequence:
		seq := val.(*runtime.SequenceValue)
		for i := 0; i < seq.Len(); i++ {
			if err := h.checkValue(*t.Elem, seq.At(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	case FieldMapping:
		m := val.(*runtime.MappingValue)
		for _, k := range m.Keys() {
			el, _ := m.Get(k)
			if err := h.checkValue(*t.Elem, el); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	}
	return nil
}

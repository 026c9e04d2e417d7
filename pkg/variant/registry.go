package variant

import (
	"fmt"
	"sync"
)

// Registry holds every sealed hierarchy known to a program. Declared
// hierarchies are immutable; the registry only grows.
type Registry struct {
	mu          sync.RWMutex
	hierarchies map[string]*Hierarchy
	order       []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hierarchies: make(map[string]*Hierarchy)}
}

// Declare seals a new hierarchy with the given variants, in order. A failed
// declaration leaves the registry untouched.
func (r *Registry) Declare(name string, specs ...VariantSpec) (*Hierarchy, error) {
	if name == "" {
		return nil, fmt.Errorf("variant: hierarchy name is empty")
	}
	if len(specs) == 0 {
		return nil, &EmptyHierarchyError{Hierarchy: name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hierarchies[name]; exists {
		return nil, &DuplicateHierarchyError{Hierarchy: name}
	}

	h := &Hierarchy{
		name:     name,
		registry: r,
		byName:   make(map[string]*Variant, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("variant: hierarchy %s declares a variant with an empty name", name)
		}
		if _, dup := h.byName[spec.Name]; dup {
			return nil, &DuplicateVariantError{Hierarchy: name, Variant: spec.Name}
		}
		v, err := r.newVariant(name, spec)
		if err != nil {
			return nil, err
		}
		h.variants = append(h.variants, v)
		h.byName[spec.Name] = v
	}

	r.hierarchies[name] = h
	r.order = append(r.order, name)
	return h, nil
}

// newVariant validates one variant spec. Callers hold r.mu.
func (r *Registry) newVariant(hierarchy string, spec VariantSpec) (*Variant, error) {
	v := &Variant{
		name:      spec.Name,
		hierarchy: hierarchy,
		fields:    append([]FieldSpec(nil), spec.Fields...),
		index:     make(map[string]int, len(spec.Fields)),
	}
	for idx, field := range spec.Fields {
		if field.Name == "" {
			return nil, fmt.Errorf("variant: %s.%s field %d has an empty name", hierarchy, spec.Name, idx)
		}
		if _, dup := v.index[field.Name]; dup {
			return nil, &DuplicateFieldError{Hierarchy: hierarchy, Variant: spec.Name, Field: field.Name}
		}
		if err := checkFieldType(field.Type); err != nil {
			return nil, fmt.Errorf("variant: %s.%s field %s: %w", hierarchy, spec.Name, field.Name, err)
		}
		for _, ref := range field.Type.References() {
			if ref == hierarchy {
				continue
			}
			if _, ok := r.hierarchies[ref]; !ok {
				return nil, &UnknownHierarchyError{Hierarchy: hierarchy, Variant: spec.Name, Field: field.Name, Ref: ref}
			}
		}
		v.index[field.Name] = idx
	}
	return v, nil
}

func checkFieldType(t FieldType) error {
	switch t.Kind {
	case FieldBool, FieldInt, FieldFloat, FieldString:
		return nil
	case FieldRef:
		if t.Ref == "" {
			return fmt.Errorf("reference type has no hierarchy name")
		}
		return nil
	case FieldSequence, FieldMapping:
		if t.Elem == nil {
			return fmt.Errorf("%s type has no element type", t.Kind)
		}
		return checkFieldType(*t.Elem)
	default:
		return fmt.Errorf("unsupported field kind %s", t.Kind)
	}
}

// Lookup returns a declared hierarchy.
func (r *Registry) Lookup(name string) (*Hierarchy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hierarchies[name]
	return h, ok
}

// VariantsOf returns the declared variant names of a hierarchy, in order.
func (r *Registry) VariantsOf(name string) ([]string, error) {
	h, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownHierarchyError{Ref: name}
	}
	return h.Variants(), nil
}

// Hierarchies returns the declared hierarchy names in declaration order.
func (r *Registry) Hierarchies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

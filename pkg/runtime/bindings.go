package runtime

import (
	"fmt"
	"sort"
)

// Bindings provides lexical scoping for the names captured by a pattern.
type Bindings struct {
	values map[string]Value
	parent *Bindings
}

// NewBindings creates a new scope, optionally nested under a parent.
func NewBindings(parent *Bindings) *Bindings {
	return &Bindings{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define inserts or shadows a binding in the current scope.
func (b *Bindings) Define(name string, value Value) {
	b.values[name] = value
}

// Lookup retrieves a binding, searching outward through the scope chain.
func (b *Bindings) Lookup(name string) (Value, bool) {
	for scope := b; scope != nil; scope = scope.parent {
		if v, ok := scope.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get is Lookup with an error for unbound names.
func (b *Bindings) Get(name string) (Value, error) {
	if v, ok := b.Lookup(name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("unbound name '%s'", name)
}

// Keys returns the names bound in the current scope in sorted order.
func (b *Bindings) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extend opens a child scope. Extending a nil scope yields a root scope.
func (b *Bindings) Extend() *Bindings {
	return NewBindings(b)
}

func (b *Bindings) typed(name string, want Kind) (Value, error) {
	v, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	if IsAbsent(v) {
		return nil, fmt.Errorf("'%s' is absent, expected %s", name, want)
	}
	if v.Kind() != want {
		return nil, fmt.Errorf("'%s' is %s, expected %s", name, v.Kind(), want)
	}
	return v, nil
}

// Int returns the integer bound to name.
func (b *Bindings) Int(name string) (int64, error) {
	v, err := b.typed(name, KindInteger)
	if err != nil {
		return 0, err
	}
	return v.(IntegerValue).Val, nil
}

// Float returns the float bound to name. Integers are widened.
func (b *Bindings) Float(name string) (float64, error) {
	v, err := b.Get(name)
	if err != nil {
		return 0, err
	}
	if iv, ok := v.(IntegerValue); ok {
		return float64(iv.Val), nil
	}
	v, err = b.typed(name, KindFloat)
	if err != nil {
		return 0, err
	}
	return v.(FloatValue).Val, nil
}

func (b *Bindings) Str(name string) (string, error) {
	v, err := b.typed(name, KindString)
	if err != nil {
		return "", err
	}
	return v.(StringValue).Val, nil
}

func (b *Bindings) Bool(name string) (bool, error) {
	v, err := b.typed(name, KindBool)
	if err != nil {
		return false, err
	}
	return v.(BoolValue).Val, nil
}

func (b *Bindings) Variant(name string) (*VariantValue, error) {
	v, err := b.typed(name, KindVariant)
	if err != nil {
		return nil, err
	}
	return v.(*VariantValue), nil
}

func (b *Bindings) Sequence(name string) (*SequenceValue, error) {
	v, err := b.typed(name, KindSequence)
	if err != nil {
		return nil, err
	}
	return v.(*SequenceValue), nil
}

func (b *Bindings) Mapping(name string) (*MappingValue, error) {
	v, err := b.typed(name, KindMapping)
	if err != nil {
		return nil, err
	}
	return v.(*MappingValue), nil
}

package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindBool
	KindInteger
	KindFloat
	KindSequence
	KindMapping
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindVariant:
		return "variant"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Absence
//-----------------------------------------------------------------------------

// AbsentValue is the absence-of-value sentinel. It is distinct from a variant
// that happens to have zero fields.
type AbsentValue struct{}

func (AbsentValue) Kind() Kind { return KindAbsent }

// Absent is the canonical sentinel instance.
var Absent Value = AbsentValue{}

// IsAbsent reports whether v is the sentinel. A nil interface counts as absent.
func IsAbsent(v Value) bool {
	if v == nil {
		return true
	}
	return v.Kind() == KindAbsent
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

// IntegerValue holds a 64-bit signed integer. Arithmetic on it follows Go's
// two's complement wrap-around.
type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

// Str, Bool, Int and Float are shorthands used throughout tests and demos.
func Str(s string) StringValue { return StringValue{Val: s} }

func Bool(b bool) BoolValue { return BoolValue{Val: b} }

func Int(n int64) IntegerValue { return IntegerValue{Val: n} }

func Float(f float64) FloatValue { return FloatValue{Val: f} }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// SequenceValue is an ordered, immutable list of values.
type SequenceValue struct {
	elements []Value
}

// NewSequence copies elements into a new sequence.
func NewSequence(elements ...Value) *SequenceValue {
	return &SequenceValue{elements: append([]Value(nil), elements...)}
}

func (v *SequenceValue) Kind() Kind { return KindSequence }

func (v *SequenceValue) Len() int { return len(v.elements) }

func (v *SequenceValue) At(i int) Value { return v.elements[i] }

// Elements returns a copy of the backing slice.
func (v *SequenceValue) Elements() []Value {
	return append([]Value(nil), v.elements...)
}

// MappingValue maps string keys to values. Insertion order is kept so that
// rendering is deterministic.
type MappingValue struct {
	keys    []string
	entries map[string]Value
}

// Entry is a single key/value pair used to build mappings.
type Entry struct {
	Key   string
	Value Value
}

// NewMapping builds a mapping. A repeated key keeps its first position and
// takes the last value.
func NewMapping(entries ...Entry) *MappingValue {
	m := &MappingValue{entries: make(map[string]Value, len(entries))}
	for _, e := range entries {
		if _, ok := m.entries[e.Key]; !ok {
			m.keys = append(m.keys, e.Key)
		}
		m.entries[e.Key] = e.Value
	}
	return m
}

func (v *MappingValue) Kind() Kind { return KindMapping }

func (v *MappingValue) Len() int { return len(v.keys) }

func (v *MappingValue) Get(key string) (Value, bool) {
	val, ok := v.entries[key]
	return val, ok
}

func (v *MappingValue) Has(key string) bool {
	_, ok := v.entries[key]
	return ok
}

// Keys returns the keys in insertion order.
func (v *MappingValue) Keys() []string {
	return append([]string(nil), v.keys...)
}

//-----------------------------------------------------------------------------
// Variants
//-----------------------------------------------------------------------------

// Field is a named field value carried by a variant instance.
type Field struct {
	Name  string
	Value Value
}

// VariantValue is exactly one concrete variant of a hierarchy plus its field
// values. Instances are immutable; the variant package validates them against
// the hierarchy declaration.
type VariantValue struct {
	hierarchy string
	tag       string
	fields    []Field
}

// NewVariant constructs a variant instance without validation. Callers
// normally go through variant.Hierarchy.New.
func NewVariant(hierarchy, tag string, fields ...Field) *VariantValue {
	return &VariantValue{hierarchy: hierarchy, tag: tag, fields: append([]Field(nil), fields...)}
}

func (v *VariantValue) Kind() Kind { return KindVariant }

func (v *VariantValue) Hierarchy() string { return v.hierarchy }

func (v *VariantValue) Tag() string { return v.tag }

func (v *VariantValue) NumFields() int { return len(v.fields) }

// FieldAt returns the i-th declared field.
func (v *VariantValue) FieldAt(i int) Field { return v.fields[i] }

// Field looks up a field value by name.
func (v *VariantValue) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

//-----------------------------------------------------------------------------
// Equality & rendering
//-----------------------------------------------------------------------------

// Equal reports structural equality. Floats compare by value, so NaN is never
// equal to itself.
func Equal(a, b Value) bool {
	if IsAbsent(a) || IsAbsent(b) {
		return IsAbsent(a) && IsAbsent(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case StringValue:
		return av.Val == b.(StringValue).Val
	case BoolValue:
		return av.Val == b.(BoolValue).Val
	case IntegerValue:
		return av.Val == b.(IntegerValue).Val
	case FloatValue:
		return av.Val == b.(FloatValue).Val
	case *SequenceValue:
		bv := b.(*SequenceValue)
		if len(av.elements) != len(bv.elements) {
			return false
		}
		for i := range av.elements {
			if !Equal(av.elements[i], bv.elements[i]) {
				return false
			}
		}
		return true
	case *MappingValue:
		bv := b.(*MappingValue)
		if len(av.keys) != len(bv.keys) {
			return false
		}
		for k, val := range av.entries {
			other, ok := bv.entries[k]
			if !ok || !Equal(val, other) {
				return false
			}
		}
		return true
	case *VariantValue:
		bv := b.(*VariantValue)
		if av.hierarchy != bv.hierarchy || av.tag != bv.tag || len(av.fields) != len(bv.fields) {
			return false
		}
		for i := range av.fields {
			if av.fields[i].Name != bv.fields[i].Name || !Equal(av.fields[i].Value, bv.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Format renders a value deterministically, e.g.
// `Addition(left: Constant(value: 1), right: Constant(value: 2))`.
func Format(v Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v Value) {
	if IsAbsent(v) {
		b.WriteString("<absent>")
		return
	}
	switch val := v.(type) {
	case StringValue:
		b.WriteString(strconv.Quote(val.Val))
	case BoolValue:
		b.WriteString(strconv.FormatBool(val.Val))
	case IntegerValue:
		b.WriteString(strconv.FormatInt(val.Val, 10))
	case FloatValue:
		b.WriteString(formatFloat(val.Val))
	case *SequenceValue:
		b.WriteByte('[')
		for i, el := range val.elements {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, el)
		}
		b.WriteByte(']')
	case *MappingValue:
		b.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			format(b, val.entries[k])
		}
		b.WriteByte('}')
	case *VariantValue:
		b.WriteString(val.tag)
		b.WriteByte('(')
		for i, f := range val.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			format(b, f.Value)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

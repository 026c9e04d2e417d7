package variant

import (
	"fmt"

	"variantmatch/pkg/runtime"
)

// FieldKind enumerates the declared shapes a variant field may take.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldInt
	FieldFloat
	FieldString
	FieldRef
	FieldSequence
	FieldMapping
)

func (k FieldKind) String() string {
	switch k {
	case FieldBool:
		return "bool"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldString:
		return "string"
	case FieldRef:
		return "ref"
	case FieldSequence:
		return "sequence"
	case FieldMapping:
		return "mapping"
	default:
		return fmt.Sprintf("unknown_field_kind_%d", int(k))
	}
}

// FieldType is the declared type of a field. Ref names a hierarchy for
// FieldRef; Elem is the element type of sequences and the value type of
// mappings (mapping keys are always strings).
type FieldType struct {
	Kind FieldKind
	Ref  string
	Elem *FieldType
}

func Bool() FieldType   { return FieldType{Kind: FieldBool} }
func Int() FieldType    { return FieldType{Kind: FieldInt} }
func Float() FieldType  { return FieldType{Kind: FieldFloat} }
func String() FieldType { return FieldType{Kind: FieldString} }

// Ref declares a field holding a value of the named hierarchy.
func Ref(hierarchy string) FieldType { return FieldType{Kind: FieldRef, Ref: hierarchy} }

func SequenceOf(elem FieldType) FieldType { return FieldType{Kind: FieldSequence, Elem: &elem} }

func MappingOf(elem FieldType) FieldType { return FieldType{Kind: FieldMapping, Elem: &elem} }

// String renders the type in manifest syntax: `[]Expression`, `map[string]`.
func (t FieldType) String() string {
	switch t.Kind {
	case FieldRef:
		return t.Ref
	case FieldSequence:
		return "[]" + t.elemString()
	case FieldMapping:
		return "map[" + t.elemString() + "]"
	default:
		return t.Kind.String()
	}
}

func (t FieldType) elemString() string {
	if t.Elem == nil {
		return "?"
	}
	return t.Elem.String()
}

// ValueKind is the runtime kind a non-absent value of this type carries.
func (t FieldType) ValueKind() runtime.Kind {
	switch t.Kind {
	case FieldBool:
		return runtime.KindBool
	case FieldInt:
		return runtime.KindInteger
	case FieldFloat:
		return runtime.KindFloat
	case FieldString:
		return runtime.KindString
	case FieldRef:
		return runtime.KindVariant
	case FieldSequence:
		return runtime.KindSequence
	case FieldMapping:
		return runtime.KindMapping
	}
	return runtime.KindAbsent
}

// References lists every hierarchy name reachable through the type.
func (t FieldType) References() []string {
	switch t.Kind {
	case FieldRef:
		return []string{t.Ref}
	case FieldSequence, FieldMapping:
		if t.Elem != nil {
			return t.Elem.References()
		}
	}
	return nil
}

// FieldSpec is one named, typed field of a variant.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Optional bool
}

// F declares a required field.
func F(name string, t FieldType) FieldSpec { return FieldSpec{Name: name, Type: t} }

// Opt declares a field that may hold runtime.Absent.
func Opt(name string, t FieldType) FieldSpec { return FieldSpec{Name: name, Type: t, Optional: true} }

// VariantSpec is the declaration input for one variant.
type VariantSpec struct {
	Name   string
	Fields []FieldSpec
}

// V declares a variant with the given fields in order.
func V(name string, fields ...FieldSpec) VariantSpec {
	return VariantSpec{Name: name, Fields: fields}
}

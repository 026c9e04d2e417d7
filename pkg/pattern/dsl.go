package pattern

import "variantmatch/pkg/runtime"

// Shorthand constructors for building arm lists in code.

func Type(variant string) *TypePattern {
	return NewTypePattern(variant, "")
}

func Destructure(variant string, fields ...Pattern) *DestructurePattern {
	fps := make([]*FieldPattern, len(fields))
	for i, f := range fields {
		fps[i] = NewFieldPattern("", f)
	}
	return NewDestructurePattern(variant, fps, true, "")
}

func Record(variant string, fields ...*FieldPattern) *DestructurePattern {
	return NewDestructurePattern(variant, fields, false, "")
}

func Field(name string, p Pattern) *FieldPattern {
	return NewFieldPattern(name, p)
}

func Null() *NullPattern {
	return NewNullPattern()
}

func Wildcard() *WildcardPattern {
	return NewWildcardPattern("")
}

func Bind(name string) *WildcardPattern {
	return NewWildcardPattern(name)
}

func OfKind(kind runtime.Kind, binding string) *KindPattern {
	return NewKindPattern(kind, binding)
}

func Lit(value runtime.Value) *LiteralPattern {
	return NewLiteralPattern(value)
}

package variant

import (
	"fmt"
	"strings"
)

// DuplicateVariantError reports two variants sharing a name in one hierarchy.
type DuplicateVariantError struct {
	Hierarchy string
	Variant   string
}

func (e *DuplicateVariantError) Error() string {
	return fmt.Sprintf("variant: hierarchy %s declares variant %s more than once", e.Hierarchy, e.Variant)
}

// EmptyHierarchyError reports a hierarchy declared without variants.
type EmptyHierarchyError struct {
	Hierarchy string
}

func (e *EmptyHierarchyError) Error() string {
	return fmt.Sprintf("variant: hierarchy %s declares no variants", e.Hierarchy)
}

// DuplicateHierarchyError reports an attempt to re-declare a sealed hierarchy.
type DuplicateHierarchyError struct {
	Hierarchy string
}

func (e *DuplicateHierarchyError) Error() string {
	return fmt.Sprintf("variant: hierarchy %s is already declared", e.Hierarchy)
}

// DuplicateFieldError reports a repeated field name within one variant.
type DuplicateFieldError struct {
	Hierarchy string
	Variant   string
	Field     string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("variant: %s.%s declares field %s more than once", e.Hierarchy, e.Variant, e.Field)
}

// UnknownHierarchyError reports a field referencing an undeclared hierarchy.
type UnknownHierarchyError struct {
	Hierarchy string
	Variant   string
	Field     string
	Ref       string
}

func (e *UnknownHierarchyError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("variant: unknown hierarchy %s", e.Ref)
	}
	return fmt.Sprintf("variant: %s.%s field %s references unknown hierarchy %s", e.Hierarchy, e.Variant, e.Field, e.Ref)
}

// UnknownVariantError reports a tag that is not part of a hierarchy.
type UnknownVariantError struct {
	Hierarchy string
	Variant   string
	Known     []string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("variant: hierarchy %s has no variant %s (declared: %s)", e.Hierarchy, e.Variant, strings.Join(e.Known, ", "))
}

// FieldMismatchError reports a constructed value that does not fit its
// variant's declaration.
type FieldMismatchError struct {
	Hierarchy string
	Variant   string
	Field     string
	Message   string
}

func (e *FieldMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("variant: %s.%s: %s", e.Hierarchy, e.Variant, e.Message)
	}
	return fmt.Sprintf("variant: %s.%s field %s: %s", e.Hierarchy, e.Variant, e.Field, e.Message)
}

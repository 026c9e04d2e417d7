package match

import (
	"fmt"
	"strings"

	"variantmatch/pkg/checker"
)

// AbsentTag is reported in errors for the absence sentinel.
const AbsentTag = "<absent>"

// NonExhaustiveMatchError reports a value no arm matched. Matchers that
// passed the build-time coverage check only produce it for the absence
// sentinel when no null or wildcard arm exists.
type NonExhaustiveMatchError struct {
	Hierarchy string
	Tag       string
}

func (e *NonExhaustiveMatchError) Error() string {
	return fmt.Sprintf("match: no arm of the %s matcher matches %s", e.Hierarchy, e.Tag)
}

// GuardEvaluationError wraps a guard failure. It aborts the whole match.
type GuardEvaluationError struct {
	Hierarchy string
	Arm       int
	Label     string
	Err       error
}

func (e *GuardEvaluationError) Error() string {
	return fmt.Sprintf("match: %s guard of arm %d (%s) failed: %v", e.Hierarchy, e.Arm, e.Label, e.Err)
}

func (e *GuardEvaluationError) Unwrap() error { return e.Err }

// HierarchyMismatchError reports a value that does not belong to the
// matcher's hierarchy.
type HierarchyMismatchError struct {
	Hierarchy string
	Got       string
}

func (e *HierarchyMismatchError) Error() string {
	return fmt.Sprintf("match: %s matcher cannot match %s", e.Hierarchy, e.Got)
}

// PatternError reports an arm whose pattern does not fit the hierarchy.
type PatternError struct {
	Hierarchy string
	Arm       int
	Path      string
	Message   string
}

func (e *PatternError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("match: %s arm %d: %s", e.Hierarchy, e.Arm, e.Message)
	}
	return fmt.Sprintf("match: %s arm %d at %s: %s", e.Hierarchy, e.Arm, e.Path, e.Message)
}

// ShadowedArmError is returned by Build in strict mode when some arms can
// never be selected.
type ShadowedArmError struct {
	Hierarchy   string
	Diagnostics []checker.Diagnostic
}

func (e *ShadowedArmError) Error() string {
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}
	return fmt.Sprintf("match: %s matcher has unreachable arms: %s", e.Hierarchy, strings.Join(parts, "; "))
}

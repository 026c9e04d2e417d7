package checker

import (
	"fmt"
	"strings"

	"variantmatch/pkg/pattern"
)

// CoverageGaps reports variants that no unguarded arm fully covers.
type CoverageGaps struct {
	Hierarchy string
	Missing   []string
}

func (e *CoverageGaps) Error() string {
	return fmt.Sprintf("checker: match over %s is not exhaustive; missing: %s", e.Hierarchy, strings.Join(e.Missing, ", "))
}

// PossibleNullGap reports a matcher that may be handed the absence sentinel
// but has neither a null arm nor an unguarded wildcard.
type PossibleNullGap struct {
	Hierarchy string
}

func (e *PossibleNullGap) Error() string {
	return fmt.Sprintf("checker: match over %s may receive an absent value but has no null or wildcard arm", e.Hierarchy)
}

// Diagnostic is a non-fatal finding about an arm list.
type Diagnostic struct {
	Message string
	Arm     int
	Node    pattern.Pattern
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("arm %d (%s): %s", d.Arm, d.Node, d.Message)
}

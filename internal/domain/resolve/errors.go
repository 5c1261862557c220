package resolve

import (
	"fmt"
	"strings"
)

// Kind classifies a draft validation failure.
type Kind string

// Validation failure kinds.
const (
	KindOutOfBounds        Kind = "out_of_bounds"
	KindDuplicateDayNumber Kind = "duplicate_day_number"
	KindDanglingDependency Kind = "dangling_dependency"
	KindCyclicDependency   Kind = "cyclic_dependency"
)

// Issue is one validation problem found while resolving a draft.
type Issue struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// ValidationError aggregates every issue found in a draft so the caller can
// surface the full list instead of fixing problems one at a time.
type ValidationError struct {
	Issues []Issue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "draft validation failed"
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return "draft validation failed: " + strings.Join(msgs, "; ")
}

// HasKind reports whether any issue carries the given kind.
func (e *ValidationError) HasKind(kind Kind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

package service

import (
	"errors"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/validate"
)

// ErrInvalidDocumentName rejects attachment names that cannot become object
// keys.
var ErrInvalidDocumentName = errors.New("invalid document name")

// ValidationError carries the per-field report for a submission that failed
// the field rules. Nothing is persisted when one of these is returned.
type ValidationError struct {
	Report validate.Report
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// TransitionError marks a request that asked the state machine for an edge
// it does not define, or that failed a transition gate (missing rework
// reason or note, unresolved assignee).
type TransitionError struct {
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Reason
}

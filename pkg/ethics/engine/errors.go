package engine

import "fmt"

// ValidationError indicates that an evaluation subject was rejected before
// any policy logic ran. It is distinct from a Denied clearance: the input
// was malformed, not judged.
type ValidationError struct {
	// Field is the offending field, in subject.field notation.
	Field string

	// Message describes the problem.
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ReasonerError wraps a failure inside the pattern reasoner strategy.
type ReasonerError struct {
	// Cause is the underlying error.
	Cause error
}

// NewReasonerError creates a ReasonerError.
func NewReasonerError(cause error) *ReasonerError {
	return &ReasonerError{Cause: cause}
}

// Error implements the error interface.
func (e *ReasonerError) Error() string {
	return fmt.Sprintf("reasoner failure: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *ReasonerError) Unwrap() error {
	return e.Cause
}

// EvaluationError indicates an internal failure during evaluation: a panic
// in the decision path or a failed audit write. Callers must treat it as a
// block, never as a permit.
type EvaluationError struct {
	// Kind is the evaluation kind being processed.
	Kind string

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// NewEvaluationError creates an EvaluationError.
func NewEvaluationError(kind, message string, cause error) *EvaluationError {
	return &EvaluationError{Kind: kind, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("evaluation failed (%s): %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

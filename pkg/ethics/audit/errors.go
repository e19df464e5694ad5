package audit

import "fmt"

// StoreError represents a failure in an audit store backend.
type StoreError struct {
	Backend   string // backend type ("memory", "sqlite")
	Operation string // operation that failed ("append", "history", "count", "delete")
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("audit store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

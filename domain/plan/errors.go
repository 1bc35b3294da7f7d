package plan

import (
	"errors"
	"fmt"
)

// Domain errors for plan-search runs.
var (
	// ErrInvalidInput indicates an empty or malformed problem statement.
	// It is raised before any external collaborator is called.
	ErrInvalidInput = errors.New("invalid problem statement")

	// ErrNoCandidates indicates a run produced no scored candidates.
	ErrNoCandidates = errors.New("no candidates produced")
)

// ExecutionError is the single failure surface of an algorithm run. It
// wraps whatever failed internally with the strategy and step that
// failed, and carries any partial metadata recorded up to that point.
type ExecutionError struct {
	// Algorithm is the name of the strategy that failed.
	Algorithm string

	// Step describes the operation that failed.
	Step string

	// Metadata holds the partial run trace recorded before the failure.
	Metadata map[string]any

	// Err is the underlying cause.
	Err error
}

// NewExecutionError wraps err with algorithm and step context.
func NewExecutionError(algorithm, step string, metadata map[string]any, err error) *ExecutionError {
	return &ExecutionError{
		Algorithm: algorithm,
		Step:      step,
		Metadata:  metadata,
		Err:       err,
	}
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Algorithm, e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

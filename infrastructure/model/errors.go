package model

import "errors"

// ErrGeneration is the sentinel wrapped by every provider failure.
// Callers distinguish generation failures from extraction or
// verification ones by matching against it with errors.Is.
var ErrGeneration = errors.New("generation failed")

// APIError carries a provider's own error payload.
type APIError struct {
	Provider string
	Status   int
	Type     string
	Message  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return e.Provider + ": " + e.Type + ": " + e.Message
	}
	return e.Provider + ": " + e.Message
}

// Unwrap lets errors.Is match APIError against ErrGeneration.
func (e *APIError) Unwrap() error {
	return ErrGeneration
}

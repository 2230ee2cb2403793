package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrGoalNotFound marks an operation on a goal id that no longer exists.
	// The operation has not mutated anything.
	ErrGoalNotFound = stderrors.New("goal not found")

	// ErrPersist marks a write-through failure. The in-memory change stands.
	ErrPersist = stderrors.New("persist state")
)

// ValidationError rejects malformed input before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return stderrors.As(err, &v)
}

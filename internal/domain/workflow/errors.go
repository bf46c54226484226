package workflow

import "errors"

var (
	// ErrNotFound is returned when the referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when the actor lacks the role, department
	// or category qualification for the requested action
	ErrUnauthorized = errors.New("actor not authorized for this action")

	// ErrInvalidTransition is returned when the action is structurally
	// inapplicable to the record's current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConflict is returned when a concurrent mutation is detected
	ErrConflict = errors.New("record was modified concurrently")

	// ErrValidation is returned when the action payload is missing or invalid
	ErrValidation = errors.New("invalid action payload")
)

package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConflict is returned when a conditional write did not apply because
	// the record no longer satisfies its precondition.
	ErrConflict = errors.New("conditional update not applied")
)

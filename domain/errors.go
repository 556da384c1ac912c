package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup matched nothing, including a
	// failed credential check. It is an expected outcome, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert collides with a unique index.
	ErrDuplicate = errors.New("duplicate key")

	// ErrInvalidRecord is returned when a stored document cannot be mapped
	// to a domain value.
	ErrInvalidRecord = errors.New("invalid record")
)

package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when the store cannot be reached. Callers
	// treat it as transient and may fall back to local persistence.
	ErrUnavailable = errors.New("store unavailable")

	// ErrWriteConflict is returned when a write is rejected by the store,
	// for example by a conflicting unique index entry.
	ErrWriteConflict = errors.New("write conflict")
)

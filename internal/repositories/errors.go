package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write lost a race with a concurrent transaction,
	// either through a uniqueness violation or a serialization failure.
	// Callers may retry the whole transaction.
	ErrConflict = errors.New("record conflict")
)

package workflow

import "errors"

var (
	// ErrIllegalTransition is returned when a status change is not allowed
	// from the record's current status.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrInvalid marks input that failed validation
	ErrInvalid = errors.New("invalid input")
	// ErrForbidden is returned when the caller's role may not perform an action
	ErrForbidden = errors.New("action not permitted for role")
	// ErrNotFound is returned when the record to act on does not exist
	ErrNotFound = errors.New("record not found")
)

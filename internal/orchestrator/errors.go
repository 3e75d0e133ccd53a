package orchestrator

import "errors"

var (
	// ErrNotFound is returned on any read of an unknown or deleted match id.
	ErrNotFound = errors.New("match not found")

	// ErrInvalidInput is returned when an upload is rejected before any job
	// is dispatched. No match record is left behind in that case.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIllegalTransition is returned when a callback arrives for a match
	// that never reached PROCESSING.
	ErrIllegalTransition = errors.New("illegal status transition")
)

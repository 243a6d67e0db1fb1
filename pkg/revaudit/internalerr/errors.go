package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrEmptySource      = errors.New("source produced no records")
	// ErrFatal marks a processor failure that cannot be contained to a single
	// record; the worker abandons the rest of its chunk.
	ErrFatal = errors.New("fatal worker failure")
)

package models

import "errors"

// Errors shared by the live store, the engine and the services.
var (
	ErrNotFound           = errors.New("not found")
	ErrStaleOrUnavailable = errors.New("no current value sampled")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrNotWritable        = errors.New("destination is not writable")
	ErrAlreadyExists      = errors.New("already exists")
)

package registry

import "errors"

var (
	// ErrValidation marks missing or malformed client input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown tracking ID.
	ErrNotFound = errors.New("link not found")
	// ErrPersistence marks a store failure. The mutation was not committed.
	ErrPersistence = errors.New("persistence failed")
	// ErrUninitialized is returned before Load has succeeded.
	ErrUninitialized = errors.New("registry not loaded")
)

package repository

import "errors"

// Backends wrap driver errors with one of these so callers can match with errors.Is
// and still reach the driver error underneath.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMapping            = errors.New("row does not match entity shape")
	ErrQuerySyntax        = errors.New("query rejected by store")
	ErrInvalidFixture     = errors.New("invalid fixture")
	ErrNotFound           = errors.New("task not found")
)

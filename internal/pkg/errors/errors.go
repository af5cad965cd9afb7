package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoCredits means the caller has no enhancement credits left.
	ErrNoCredits = errors.New("no credits remaining")
	// ErrUpstream marks failures of the model provider or a backing store.
	ErrUpstream = errors.New("upstream failure")
)

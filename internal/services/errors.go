package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these to
// HTTP status codes; anything else surfaces as a server error.
var (
	// ErrNotFound means a name or id did not resolve to a row.
	ErrNotFound = errors.New("not found")

	// ErrInUse means a delete was refused because dependent rows exist.
	ErrInUse = errors.New("dependent rows exist")

	// ErrInvalidInput means the arguments violate a shape or datatype rule.
	ErrInvalidInput = errors.New("invalid input")
)

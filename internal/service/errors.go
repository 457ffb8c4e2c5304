package service

import "errors"

// Common service errors. Callers check for them with errors.Is and the API
// layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource belongs to a different user than the
	// one making the request. The API layer maps this to 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")
)

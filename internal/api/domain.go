package api

import "errors"

// Domain error sentinels. Repositories and services wrap these with context;
// handlers translate them to HTTP status codes.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("invalid request input")
	ErrUpstream        = errors.New("upstream primitive failure")
)

// ClientFault reports whether err maps to a caller-caused HTTP 400.
// Validation, conflict, not-found and auth failures are all surfaced as 400,
// matching how the API models client errors.
func ClientFault(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrBadRequest)
}

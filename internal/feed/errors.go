package feed

import "errors"

var (
	// ErrNotFound marks a referenced entity that does not exist. Resolvers
	// swallow it into fallback values; only explicit point lookups surface it.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated marks an operation that needs a viewer identity and
	// was attempted without one. Raised before any remote call.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden marks a mutation attempted by someone other than the owner.
	ErrForbidden = errors.New("not allowed")

	// ErrBusy marks a toggle dropped because a prior invocation by the same
	// viewer on the same post is still in flight.
	ErrBusy = errors.New("operation already in flight")
)

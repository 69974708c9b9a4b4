package friendships

import "errors"

var (
	// ErrNotFound indicates a missing user, a missing pending request, or a
	// pair that is not accepted friends.
	ErrNotFound = errors.New("friendship not found")
	// ErrNotAuthorized indicates the caller may not perform the transition.
	ErrNotAuthorized = errors.New("not authorized for friendship transition")
	// ErrInvalidRequest indicates malformed ids or a self-referencing pair.
	ErrInvalidRequest = errors.New("invalid friendship request")
	// ErrTransient indicates the store kept losing races after the retry budget.
	ErrTransient = errors.New("friendship store temporarily unavailable")
)

package board

import "errors"

// Errors returned by the Dispatcher. Callers match them with errors.Is; the
// message of the returned (possibly wrapped) error is safe to show a client.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrAdminRequired = errors.New("admin required")
	ErrItemNotFound  = errors.New("item not found")
	ErrNoCandidate   = errors.New("no matching hidden items, ask an admin to add some")
	ErrUnknownAction = errors.New("unknown action")
)

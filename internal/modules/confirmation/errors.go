package confirmation

import "errors"

var (
	// ErrUnknownSession means no draft carries the provider session id.
	ErrUnknownSession = errors.New("unknown provider session")

	// ErrDraftExpired rejects a late signal for an expired draft: the
	// inventory hold is gone, so the draft must never be promoted.
	ErrDraftExpired = errors.New("draft already expired")

	// ErrInvalidSignal covers malformed outcomes and missing identifiers.
	ErrInvalidSignal = errors.New("invalid confirmation signal")

	// ErrNotFound is returned by PollStatus for an unknown draft id.
	ErrNotFound = errors.New("draft not found")
)

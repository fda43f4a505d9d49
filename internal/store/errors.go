package store

import "errors"

// Domain error kinds. Store functions wrap these with context so callers can
// classify failures with errors.Is while still getting a useful message.
// Anything not wrapping one of these is a persistence failure.
var (
	// ErrNotFound means the referenced post, review, or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller lacks the required relationship to the
	// entity (not the owner, not the claimant).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState means the requested transition is illegal from the
	// entity's current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict means the write would duplicate an existing record.
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument means the input itself is unacceptable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSelfClaim means an owner tried to claim their own post.
	ErrSelfClaim = errors.New("cannot claim own post")
)

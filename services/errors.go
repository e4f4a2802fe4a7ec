package services

import "errors"

// Shared error taxonomy, mapped to HTTP responses in the handlers package.
var (
	// Malformed input. Client error, never retried.
	ErrValidationFailed = errors.New("validation failed")

	// Unknown tournament, bracket, match or payout. Terminal.
	ErrBracketNotFound = errors.New("bracket not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrPayoutNotFound  = errors.New("payout not found")

	// Operation invalid for the current match or bracket state.
	ErrInvalidMatchState  = errors.New("operation not valid for current match state")
	ErrBracketNotComplete = errors.New("bracket has not reached a terminal state")

	// Optimistic-concurrency mismatch that survived the internal retries.
	// Transient: the caller should refetch and retry.
	ErrVersionConflict = errors.New("bracket was modified concurrently")
)

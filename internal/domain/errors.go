package domain

import "errors"

// Error kinds surfaced across the engine boundary. Callers match with
// errors.Is; wrapped messages carry the detail (current actor, bet to match)
// a client needs to resync.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrInvalidAction = errors.New("invalid action")

	// ErrConflict means a conditional write matched zero rows: another
	// writer won the race. Losing to the timeout sweep is a normal
	// outcome, not a failure.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrInvariant marks a computation the engine refuses to guess at
	// (pot partition mismatch, missing hole cards). Fail loud, never
	// award a wrong amount.
	ErrInvariant = errors.New("invariant violation")
)

package protect

import "errors"

// Protocol violations. All are terminal for the attempted transition and
// leave the commitment table unchanged.
var (
	// ErrDuplicateCommitment is returned when committing a hash that
	// already exists.
	ErrDuplicateCommitment = errors.New("duplicate commitment")

	// ErrInvalidCommitment is returned when the revealed parameters do not
	// hash to the commitment, the commitment is unknown, or the caller is
	// not the owner.
	ErrInvalidCommitment = errors.New("invalid commitment")

	// ErrTooEarly is returned when revealing before the earliest execution
	// block.
	ErrTooEarly = errors.New("reveal before earliest execution block")

	// ErrAlreadyExecuted is returned on any transition against an executed
	// commitment.
	ErrAlreadyExecuted = errors.New("commitment already executed")

	// ErrDeadlineExpired is returned when revealing after the commitment
	// deadline.
	ErrDeadlineExpired = errors.New("commitment deadline expired")

	// ErrAbortedMEVDetected is returned when the reveal-time check observes
	// a price deviation consistent with an attack, or cannot obtain a price
	// at all (fail closed). No execution occurred; the commitment remains
	// cancellable.
	ErrAbortedMEVDetected = errors.New("execution aborted: MEV conditions detected")
)

package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no rule exists for (state, action)
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthorized is returned when the acting role is not in the rule's permitted-role set
	ErrUnauthorized = errors.New("role not permitted for transition")

	// ErrGuardFailed is returned when a rule's payload precondition is not met
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrExpiredDeadline is returned when an actor action is attempted on a time-lapsed entity
	ErrExpiredDeadline = errors.New("deadline has expired")

	// ErrConcurrentModification is returned when the compare-and-swap on the
	// entity's state lost a race; the caller may re-read and retry
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrUnknownKind is returned when no machine is registered for a kind
	ErrUnknownKind = errors.New("unknown workflow kind")

	// ErrInvalidState is returned when an entity holds a state outside its
	// machine's declared state set
	ErrInvalidState = errors.New("invalid state")
)

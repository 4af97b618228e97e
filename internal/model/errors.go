package model

import (
	"errors"
	"fmt"
)

// Business-rule errors surfaced by the services. Handlers map each to an
// HTTP status; none are ever downgraded to a generic failure.
var (
	// ErrInvalidRequest is returned for malformed input, e.g. quantity < 1.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEventNotBookable is returned when purchasing against an event that
	// is not in the published state.
	ErrEventNotBookable = errors.New("event is not open for booking")

	// ErrEventSoldOut is returned when every ticket type of the event has
	// zero availability.
	ErrEventSoldOut = errors.New("event is sold out")

	// ErrInsufficientAvailability is the sentinel matched by
	// InsufficientAvailabilityError via errors.Is.
	ErrInsufficientAvailability = errors.New("insufficient ticket availability")

	// ErrPerRequestLimitExceeded is returned when a single purchase asks for
	// more tickets than the event allows per user.
	ErrPerRequestLimitExceeded = errors.New("quantity exceeds the per-user ticket limit")

	// ErrPerUserLimitExceeded is returned when the purchase would push the
	// user's cumulative ticket count for the event past the limit.
	ErrPerUserLimitExceeded = errors.New("user has reached the ticket limit for this event")

	// ErrUnauthorized is returned when the caller lacks the right to act on
	// the resource.
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")

	// ErrAlreadyFinalized is returned when cancelling a ticket that is
	// already used, cancelled, or refunded.
	ErrAlreadyFinalized = errors.New("ticket is already finalized")

	// ErrInvalidStatusTransition is returned for a disallowed ticket status
	// transition.
	ErrInvalidStatusTransition = errors.New("invalid ticket status transition")

	// ErrInvalidTransition is returned for a disallowed event lifecycle
	// transition.
	ErrInvalidTransition = errors.New("invalid event status transition")

	// ErrConcurrencyConflict is returned after bounded retries when
	// concurrent transactions keep invalidating each other.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrStorageUnavailable wraps storage faults outside this core's
	// control, so callers can tell "request invalid" from "try again later".
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InsufficientAvailabilityError carries the remaining count so callers can
// offer a reduced quantity. It matches ErrInsufficientAvailability.
type InsufficientAvailabilityError struct {
	Requested int
	Available int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient ticket availability: requested %d, %d left", e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientAvailability) succeed.
func (e *InsufficientAvailabilityError) Is(target error) bool {
	return target == ErrInsufficientAvailability
}

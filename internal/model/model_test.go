package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventStatusTransitions(t *testing.T) {
	assert.True(t, EventStatusDraft.CanTransitionTo(EventStatusPublished))
	assert.True(t, EventStatusDraft.CanTransitionTo(EventStatusCancelled))
	assert.True(t, EventStatusPublished.CanTransitionTo(EventStatusCancelled))
	assert.True(t, EventStatusPublished.CanTransitionTo(EventStatusCompleted))

	assert.False(t, EventStatusDraft.CanTransitionTo(EventStatusCompleted))
	assert.False(t, EventStatusPublished.CanTransitionTo(EventStatusDraft))
	assert.False(t, EventStatusCancelled.CanTransitionTo(EventStatusPublished))
	assert.False(t, EventStatusCompleted.CanTransitionTo(EventStatusPublished))
	assert.False(t, EventStatusCompleted.CanTransitionTo(EventStatusCancelled))
}

func TestTicketStatusTransitions(t *testing.T) {
	assert.True(t, TicketStatusReserved.CanTransitionTo(TicketStatusPurchased))
	assert.True(t, TicketStatusPurchased.CanTransitionTo(TicketStatusUsed))
	assert.True(t, TicketStatusPurchased.CanTransitionTo(TicketStatusCancelled))
	assert.True(t, TicketStatusPurchased.CanTransitionTo(TicketStatusRefunded))

	assert.False(t, TicketStatusReserved.CanTransitionTo(TicketStatusUsed))
	assert.False(t, TicketStatusUsed.CanTransitionTo(TicketStatusCancelled))
	assert.False(t, TicketStatusCancelled.CanTransitionTo(TicketStatusPurchased))
	assert.False(t, TicketStatusRefunded.CanTransitionTo(TicketStatusPurchased))

	for _, s := range []TicketStatus{TicketStatusUsed, TicketStatusCancelled, TicketStatusRefunded} {
		assert.True(t, s.Terminal(), "%s is terminal", s)
	}
	assert.False(t, TicketStatusPurchased.Terminal())

	assert.True(t, TicketStatusPurchased.Active())
	assert.True(t, TicketStatusUsed.Active(), "used tickets still occupy their slot")
	assert.False(t, TicketStatusCancelled.Active())
	assert.False(t, TicketStatusRefunded.Active())
}

func TestEventHelpers(t *testing.T) {
	e := Event{Status: EventStatusPublished, TotalCapacity: 100, TicketsSold: 40}
	assert.True(t, e.IsBookable())
	assert.Equal(t, 60, e.Remaining())

	e.Status = EventStatusDraft
	assert.False(t, e.IsBookable())
}

func TestCallerRoles(t *testing.T) {
	assert.False(t, Caller{Role: RoleUser}.CanCreateEvents())
	assert.True(t, Caller{Role: RoleOrganizer}.CanCreateEvents())
	assert.True(t, Caller{Role: RoleAdmin}.CanCreateEvents())
	assert.True(t, Caller{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Caller{Role: RoleOrganizer}.IsAdmin())
}

func TestInsufficientAvailabilityError(t *testing.T) {
	err := error(&InsufficientAvailabilityError{Requested: 5, Available: 2})

	assert.True(t, errors.Is(err, ErrInsufficientAvailability))

	var insufficient *InsufficientAvailabilityError
	assert.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Available)
	assert.Contains(t, err.Error(), "2 left")
}

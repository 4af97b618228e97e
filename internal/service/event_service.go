package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// maxTotalCapacity bounds a single event so a typo cannot create billions
// of tickets.
const maxTotalCapacity = 500_000

// EventService orchestrates catalog operations: event creation, lifecycle
// transitions, and read queries.
type EventService struct {
	tx        TxRunner
	events    EventStore
	inventory InventoryStore
	log       zerolog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(tx TxRunner, events EventStore, inventory InventoryStore, log zerolog.Logger) *EventService {
	return &EventService{tx: tx, events: events, inventory: inventory, log: log}
}

// CreateEvent validates the request and inserts the event together with
// its ticket types in one transaction. The event starts in draft and does
// not accept purchases until published.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Caller, req model.CreateEventRequest) (*model.Event, error) {
	if !caller.CanCreateEvents() {
		return nil, fmt.Errorf("create event: %w", model.ErrUnauthorized)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", model.ErrInvalidRequest)
	}
	if req.MaxTicketsPerUser < 1 {
		return nil, fmt.Errorf("%w: max_tickets_per_user must be at least 1", model.ErrInvalidRequest)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", model.ErrInvalidRequest)
	}
	if len(req.TicketTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one ticket type is required", model.ErrInvalidRequest)
	}

	totalCapacity := 0
	for _, tt := range req.TicketTypes {
		if strings.TrimSpace(tt.Name) == "" {
			return nil, fmt.Errorf("%w: ticket type name is required", model.ErrInvalidRequest)
		}
		if tt.Total < 1 {
			return nil, fmt.Errorf("%w: ticket type total must be at least 1", model.ErrInvalidRequest)
		}
		if tt.Price.IsNegative() {
			return nil, fmt.Errorf("%w: ticket type price cannot be negative", model.ErrInvalidRequest)
		}
		totalCapacity += tt.Total
	}
	if totalCapacity > maxTotalCapacity {
		return nil, fmt.Errorf("%w: total capacity cannot exceed %d", model.ErrInvalidRequest, maxTotalCapacity)
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:                uuid.New().String(),
		OrganizerID:       caller.ID,
		Name:              req.Name,
		Description:       req.Description,
		Venue:             req.Venue,
		Status:            model.EventStatusDraft,
		MaxTicketsPerUser: req.MaxTicketsPerUser,
		TotalCapacity:     totalCapacity,
		TicketsSold:       0,
		SoldOut:           false,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		CreatedAt:         now,
	}

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.events.Create(txCtx, event); err != nil {
			return err
		}
		for _, ttReq := range req.TicketTypes {
			tt := &model.TicketType{
				ID:        uuid.New().String(),
				EventID:   event.ID,
				Name:      strings.TrimSpace(ttReq.Name),
				Price:     ttReq.Price,
				Total:     ttReq.Total,
				Available: ttReq.Total,
				CreatedAt: now,
			}
			if err := s.inventory.Insert(txCtx, tt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("event_id", event.ID).
		Str("organizer_id", caller.ID).
		Int("total_capacity", totalCapacity).
		Msg("event created")
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrInvalidRequest)
	}
	return s.events.GetByID(ctx, id)
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// ListTicketTypes returns the ticket types of an event.
func (s *EventService) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrInvalidRequest)
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.inventory.ListByEvent(ctx, eventID)
}

// SetStatus moves an event through its lifecycle. Only the owning
// organizer or an admin may transition an event, and only along the
// allowed edges (draft to published or cancelled, published to cancelled
// or completed).
func (s *EventService) SetStatus(ctx context.Context, caller model.Caller, eventID string, next model.EventStatus) error {
	if eventID == "" {
		return fmt.Errorf("%w: event id is required", model.ErrInvalidRequest)
	}
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrInvalidRequest, next)
	}

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.events.GetForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != caller.ID && !caller.IsAdmin() {
			return fmt.Errorf("set event status: %w", model.ErrUnauthorized)
		}
		if !event.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s to %s: %w", event.Status, next, model.ErrInvalidTransition)
		}
		return s.events.SetStatus(txCtx, eventID, next)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("status", string(next)).
		Msg("event status changed")
	return nil
}

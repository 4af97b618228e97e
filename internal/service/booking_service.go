package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketgrid/ticketgrid/internal/metrics"
	"github.com/ticketgrid/ticketgrid/internal/model"
	"github.com/ticketgrid/ticketgrid/internal/ticketcode"
)

// maxTxAttempts bounds the internal retry of transactions that fail on
// serialization conflicts or ticket code collisions. Beyond this the
// caller sees ErrConcurrencyConflict.
const maxTxAttempts = 3

// BookingService is the reservation coordinator. It composes the catalog,
// the inventory, and the ledger inside single transactions and is the only
// writer of TicketType.Available, Event.TicketsSold, and Event.SoldOut.
type BookingService struct {
	tx        TxRunner
	events    EventStore
	inventory InventoryStore
	ledger    LedgerStore
	log       zerolog.Logger
}

// NewBookingService constructs a BookingService with its dependencies.
func NewBookingService(tx TxRunner, events EventStore, inventory InventoryStore, ledger LedgerStore, log zerolog.Logger) *BookingService {
	return &BookingService{tx: tx, events: events, inventory: inventory, ledger: ledger, log: log}
}

// Purchase atomically sells quantity tickets of one type to the caller.
//
// All checks run inside the transaction against current data: the event
// row is locked first, then the ticket type row, so concurrent purchases
// and cancellations against the same event serialise in a fixed order and
// the sum of successful decrements can never drive availability negative.
// Exactly one of N racers gets the last unit.
func (s *BookingService) Purchase(ctx context.Context, caller model.Caller, eventID string, req model.PurchaseRequest) ([]model.Ticket, error) {
	start := time.Now()
	tickets, err := s.purchase(ctx, caller, eventID, req)
	metrics.ObservePurchase(outcomeLabel(err), len(tickets), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("ticket_type_id", req.TicketTypeID).
		Str("user_id", caller.ID).
		Int("quantity", req.Quantity).
		Msg("tickets purchased")
	return tickets, nil
}

func (s *BookingService) purchase(ctx context.Context, caller model.Caller, eventID string, req model.PurchaseRequest) ([]model.Ticket, error) {
	if caller.ID == "" || eventID == "" || req.TicketTypeID == "" {
		return nil, fmt.Errorf("%w: event, ticket type, and user are required", model.ErrInvalidRequest)
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", model.ErrInvalidRequest)
	}

	var tickets []model.Ticket
	err := s.withRetry(ctx, func(ctx context.Context) error {
		tickets = nil
		return s.tx.WithTx(ctx, func(txCtx context.Context) error {
			event, err := s.events.GetForUpdate(txCtx, eventID)
			if err != nil {
				return err
			}
			if !event.IsBookable() {
				return fmt.Errorf("event is %s: %w", event.Status, model.ErrEventNotBookable)
			}
			if event.SoldOut {
				return model.ErrEventSoldOut
			}

			tt, err := s.inventory.GetForUpdate(txCtx, eventID, req.TicketTypeID)
			if err != nil {
				return err
			}
			if tt.Available < req.Quantity {
				return &model.InsufficientAvailabilityError{
					Requested: req.Quantity,
					Available: tt.Available,
				}
			}

			if req.Quantity > event.MaxTicketsPerUser {
				return fmt.Errorf("limit is %d: %w", event.MaxTicketsPerUser, model.ErrPerRequestLimitExceeded)
			}
			held, err := s.ledger.CountActiveByUserAndEvent(txCtx, caller.ID, eventID)
			if err != nil {
				return err
			}
			if held+req.Quantity > event.MaxTicketsPerUser {
				return fmt.Errorf("holding %d of %d: %w", held, event.MaxTicketsPerUser, model.ErrPerUserLimitExceeded)
			}

			if err := s.inventory.Reserve(txCtx, eventID, tt.ID, req.Quantity); err != nil {
				return err
			}

			now := time.Now().UTC()
			for i := 0; i < req.Quantity; i++ {
				code, err := ticketcode.Generate()
				if err != nil {
					return fmt.Errorf("generate ticket code: %w", err)
				}
				tickets = append(tickets, model.Ticket{
					ID:              uuid.New().String(),
					TicketTypeID:    tt.ID,
					EventID:         eventID,
					UserID:          caller.ID,
					Price:           tt.Price,
					Status:          model.TicketStatusPurchased,
					TicketCode:      code,
					SpecialRequests: req.SpecialRequests,
					PurchaseDate:    now,
				})
			}
			if err := s.ledger.InsertBatch(txCtx, tickets); err != nil {
				return err
			}

			if err := s.events.AddTicketsSold(txCtx, eventID, req.Quantity); err != nil {
				return err
			}
			soldOut, err := s.inventory.AllSoldOut(txCtx, eventID)
			if err != nil {
				return err
			}
			if soldOut {
				return s.events.SetSoldOut(txCtx, eventID, true)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Cancel voids a purchased ticket and returns its unit to inventory. A
// cancellation always frees at least one slot, so the event's sold-out
// flag is cleared unconditionally.
func (s *BookingService) Cancel(ctx context.Context, caller model.Caller, ticketID string) error {
	err := s.cancelWithStatus(ctx, caller, ticketID, model.TicketStatusCancelled, false)
	metrics.ObserveCancel(outcomeLabel(err))
	if err != nil {
		return err
	}
	s.log.Info().Str("ticket_id", ticketID).Str("caller_id", caller.ID).Msg("ticket cancelled")
	return nil
}

// Refund is the payment collaborator's hook: the same inventory
// restoration as Cancel, but the ticket ends refunded and only admins may
// trigger it.
func (s *BookingService) Refund(ctx context.Context, caller model.Caller, ticketID string) error {
	if err := s.cancelWithStatus(ctx, caller, ticketID, model.TicketStatusRefunded, true); err != nil {
		return err
	}
	s.log.Info().Str("ticket_id", ticketID).Str("caller_id", caller.ID).Msg("ticket refunded")
	return nil
}

func (s *BookingService) cancelWithStatus(ctx context.Context, caller model.Caller, ticketID string, next model.TicketStatus, adminOnly bool) error {
	if ticketID == "" {
		return fmt.Errorf("%w: ticket id is required", model.ErrInvalidRequest)
	}
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(txCtx context.Context) error {
			ticket, err := s.ledger.GetForUpdate(txCtx, ticketID)
			if err != nil {
				return err
			}
			if adminOnly {
				if !caller.IsAdmin() {
					return fmt.Errorf("refund ticket: %w", model.ErrUnauthorized)
				}
			} else if ticket.UserID != caller.ID && !caller.IsAdmin() {
				return fmt.Errorf("cancel ticket: %w", model.ErrUnauthorized)
			}
			if ticket.Status != model.TicketStatusPurchased {
				return fmt.Errorf("ticket is %s: %w", ticket.Status, model.ErrAlreadyFinalized)
			}

			// Lock the event row before touching its counters, same order
			// as Purchase.
			if _, err := s.events.GetForUpdate(txCtx, ticket.EventID); err != nil {
				return err
			}
			if err := s.ledger.UpdateStatus(txCtx, ticketID, next); err != nil {
				return err
			}
			if err := s.inventory.Release(txCtx, ticket.EventID, ticket.TicketTypeID, 1); err != nil {
				return err
			}
			if err := s.events.AddTicketsSold(txCtx, ticket.EventID, -1); err != nil {
				return err
			}
			return s.events.SetSoldOut(txCtx, ticket.EventID, false)
		})
	})
}

// MarkUsed is the check-in collaborator's hook: it moves a purchased
// ticket to used through the ledger state machine. Inventory is not
// touched; a used ticket still occupies its unit.
func (s *BookingService) MarkUsed(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return fmt.Errorf("%w: ticket id is required", model.ErrInvalidRequest)
	}
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.ledger.UpdateStatus(txCtx, ticketID, model.TicketStatusUsed)
	})
}

// GetTicket returns a ticket to its owner or an admin.
func (s *BookingService) GetTicket(ctx context.Context, caller model.Caller, ticketID string) (*model.Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticket id is required", model.ErrInvalidRequest)
	}
	ticket, err := s.ledger.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("get ticket: %w", model.ErrUnauthorized)
	}
	return ticket, nil
}

// ListUserTickets returns a user's tickets. Users may only list their own;
// admins may list anyone's.
func (s *BookingService) ListUserTickets(ctx context.Context, caller model.Caller, userID string) ([]model.Ticket, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidRequest)
	}
	if userID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("list user tickets: %w", model.ErrUnauthorized)
	}
	return s.ledger.ListByUser(ctx, userID)
}

// ListEventTickets returns every ticket issued for an event, for the
// owning organizer or an admin.
func (s *BookingService) ListEventTickets(ctx context.Context, caller model.Caller, eventID string) ([]model.Ticket, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrInvalidRequest)
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("list event tickets: %w", model.ErrUnauthorized)
	}
	return s.ledger.ListByEvent(ctx, eventID)
}

// withRetry re-runs fn on concurrency conflicts up to maxTxAttempts times.
// Business-rule failures are never retried.
func (s *BookingService) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, model.ErrConcurrencyConflict) {
			return err
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("transaction conflict, retrying")
	}
	return err
}

// outcomeLabel maps a service error to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrEventNotBookable):
		return "event_not_bookable"
	case errors.Is(err, model.ErrEventSoldOut):
		return "event_sold_out"
	case errors.Is(err, model.ErrInsufficientAvailability):
		return "insufficient_availability"
	case errors.Is(err, model.ErrPerRequestLimitExceeded):
		return "per_request_limit"
	case errors.Is(err, model.ErrPerUserLimitExceeded):
		return "per_user_limit"
	case errors.Is(err, model.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, model.ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, model.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, model.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// TicketRepository handles persistence for the booking ledger, one row per
// physical ticket.
type TicketRepository struct {
	store *Store
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(store *Store) *TicketRepository {
	return &TicketRepository{store: store}
}

const ticketColumns = `id, ticket_type_id, event_id, user_id, price::text, status,
	ticket_code, is_transferred, transferred_to, special_requests, purchase_date`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		t     model.Ticket
		price string
	)
	err := row.Scan(
		&t.ID, &t.TicketTypeID, &t.EventID, &t.UserID, &price, &t.Status,
		&t.TicketCode, &t.IsTransferred, &t.TransferredTo, &t.SpecialRequests, &t.PurchaseDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket: %w", model.ErrNotFound)
		}
		return nil, storageErr("scan ticket", err)
	}
	t.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, storageErr("parse ticket price", err)
	}
	return &t, nil
}

// InsertBatch writes all ticket rows or none. A ticket_code collision is
// reported as a concurrency conflict so the booking service regenerates
// codes and retries.
func (r *TicketRepository) InsertBatch(ctx context.Context, tickets []model.Ticket) error {
	db := r.store.db(ctx)
	for i := range tickets {
		t := &tickets[i]
		_, err := db.Exec(ctx,
			`INSERT INTO tickets (`+ticketColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, t.TicketTypeID, t.EventID, t.UserID, t.Price.String(), t.Status,
			t.TicketCode, t.IsTransferred, t.TransferredTo, t.SpecialRequests, t.PurchaseDate,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("ticket code collision: %w", model.ErrConcurrencyConflict)
			}
			return storageErr("insert ticket", err)
		}
	}
	return nil
}

// GetByID returns a single ticket or ErrNotFound.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

// GetForUpdate locks the ticket row for the remainder of the transaction.
func (r *TicketRepository) GetForUpdate(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
	return scanTicket(row)
}

// ListByUser returns all tickets held by a user, newest first.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY purchase_date DESC`,
		userID)
}

// ListByEvent returns all tickets issued for an event, newest first.
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 ORDER BY purchase_date DESC`,
		eventID)
}

func (r *TicketRepository) list(ctx context.Context, sql string, arg any) ([]model.Ticket, error) {
	rows, err := r.store.db(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tickets", err)
	}
	return tickets, nil
}

// CountActiveByUserAndEvent counts the user's tickets for the event that
// still occupy a per-user slot (everything except cancelled and refunded).
func (r *TicketRepository) CountActiveByUserAndEvent(ctx context.Context, userID, eventID string) (int, error) {
	var count int
	err := r.store.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets
		 WHERE user_id = $1 AND event_id = $2 AND status NOT IN ($3, $4)`,
		userID, eventID, model.TicketStatusCancelled, model.TicketStatusRefunded,
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count user tickets", err)
	}
	return count, nil
}

// UpdateStatus moves a ticket through its state machine. The current row
// is locked first so concurrent transitions serialise; a disallowed
// transition fails with ErrInvalidStatusTransition.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, next model.TicketStatus) error {
	t, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%s to %s: %w", t.Status, next, model.ErrInvalidStatusTransition)
	}
	_, err = r.store.db(ctx).Exec(ctx,
		`UPDATE tickets SET status = $2 WHERE id = $1`, id, next)
	if err != nil {
		return storageErr("update ticket status", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// TicketTypeRepository handles persistence for per-type ticket inventory.
type TicketTypeRepository struct {
	store *Store
	log   zerolog.Logger
}

// NewTicketTypeRepository constructs a TicketTypeRepository.
func NewTicketTypeRepository(store *Store, log zerolog.Logger) *TicketTypeRepository {
	return &TicketTypeRepository{store: store, log: log}
}

// Prices travel as text so NUMERIC round-trips through decimal.Decimal
// without loss.
const ticketTypeColumns = `id, event_id, name, price::text, total, available, created_at`

func scanTicketType(row pgx.Row) (*model.TicketType, error) {
	var (
		tt    model.TicketType
		price string
	)
	err := row.Scan(&tt.ID, &tt.EventID, &tt.Name, &price, &tt.Total, &tt.Available, &tt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticket type: %w", model.ErrNotFound)
		}
		return nil, storageErr("scan ticket type", err)
	}
	tt.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, storageErr("parse ticket type price", err)
	}
	return &tt, nil
}

// Insert adds a new ticket type with available initialised to total.
func (r *TicketTypeRepository) Insert(ctx context.Context, tt *model.TicketType) error {
	_, err := r.store.db(ctx).Exec(ctx,
		`INSERT INTO ticket_types (id, event_id, name, price, total, available, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tt.ID, tt.EventID, tt.Name, tt.Price.String(), tt.Total, tt.Available, tt.CreatedAt,
	)
	if err != nil {
		return storageErr("insert ticket type", err)
	}
	return nil
}

// GetByID returns a ticket type scoped to its event, or ErrNotFound.
func (r *TicketTypeRepository) GetByID(ctx context.Context, eventID, id string) (*model.TicketType, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1 AND event_id = $2`,
		id, eventID)
	return scanTicketType(row)
}

// GetForUpdate locks the ticket type row for the remainder of the
// transaction.
func (r *TicketTypeRepository) GetForUpdate(ctx context.Context, eventID, id string) (*model.TicketType, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1 AND event_id = $2 FOR UPDATE`,
		id, eventID)
	return scanTicketType(row)
}

// ListByEvent returns all ticket types for an event, cheapest first.
func (r *TicketTypeRepository) ListByEvent(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = $1 ORDER BY price ASC, name ASC`,
		eventID)
	if err != nil {
		return nil, storageErr("list ticket types", err)
	}
	defer rows.Close()

	var types []model.TicketType
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *tt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list ticket types", err)
	}
	return types, nil
}

// Reserve decrements availability by quantity. The guard in the WHERE
// clause is a backstop; the booking service has already verified
// availability under the row lock, so zero affected rows means a
// concurrent writer slipped past the lock ordering.
func (r *TicketTypeRepository) Reserve(ctx context.Context, eventID, id string, quantity int) error {
	tag, err := r.store.db(ctx).Exec(ctx,
		`UPDATE ticket_types SET available = available - $3
		 WHERE id = $1 AND event_id = $2 AND available >= $3`,
		id, eventID, quantity)
	if err != nil {
		return storageErr("reserve tickets", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserve tickets: %w", model.ErrConcurrencyConflict)
	}
	return nil
}

// Release returns quantity units to availability. Exceeding total is an
// invariant violation somewhere upstream: it is logged loudly and clamped
// so the stored counters stay inside their domain.
func (r *TicketTypeRepository) Release(ctx context.Context, eventID, id string, quantity int) error {
	var available, total int
	err := r.store.db(ctx).QueryRow(ctx,
		`SELECT available, total FROM ticket_types WHERE id = $1 AND event_id = $2 FOR UPDATE`,
		id, eventID).Scan(&available, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ticket type: %w", model.ErrNotFound)
		}
		return storageErr("lock ticket type", err)
	}

	if available+quantity > total {
		r.log.Error().
			Str("ticket_type_id", id).
			Str("event_id", eventID).
			Int("available", available).
			Int("total", total).
			Int("release_quantity", quantity).
			Msg("release would exceed total, clamping")
		quantity = total - available
	}

	_, err = r.store.db(ctx).Exec(ctx,
		`UPDATE ticket_types SET available = available + $3 WHERE id = $1 AND event_id = $2`,
		id, eventID, quantity)
	if err != nil {
		return storageErr("release tickets", err)
	}
	return nil
}

// AllSoldOut reports whether every ticket type of the event has zero
// availability.
func (r *TicketTypeRepository) AllSoldOut(ctx context.Context, eventID string) (bool, error) {
	var anyLeft bool
	err := r.store.db(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket_types WHERE event_id = $1 AND available > 0)`,
		eventID).Scan(&anyLeft)
	if err != nil {
		return false, storageErr("check sold out", err)
	}
	return !anyLeft, nil
}

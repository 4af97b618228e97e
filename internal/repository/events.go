package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// EventRepository handles persistence for the event catalog.
type EventRepository struct {
	store *Store
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

const eventColumns = `id, organizer_id, name, description, venue, status,
	max_tickets_per_user, total_capacity, tickets_sold, sold_out,
	start_date, end_date, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Name, &e.Description, &e.Venue, &e.Status,
		&e.MaxTicketsPerUser, &e.TotalCapacity, &e.TicketsSold, &e.SoldOut,
		&e.StartDate, &e.EndDate, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event: %w", model.ErrNotFound)
		}
		return nil, storageErr("scan event", err)
	}
	return &e, nil
}

// Create inserts a new event row.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.store.db(ctx).Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.OrganizerID, e.Name, e.Description, e.Venue, e.Status,
		e.MaxTicketsPerUser, e.TotalCapacity, e.TicketsSold, e.SoldOut,
		e.StartDate, e.EndDate, e.CreatedAt,
	)
	if err != nil {
		return storageErr("insert event", err)
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// GetForUpdate locks the event row for the remainder of the transaction.
// Concurrent purchases and cancellations against the same event serialise
// on this lock.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	row := r.store.db(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	return scanEvent(row)
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// SetStatus updates the event lifecycle status. Transition validation
// happens in the service, which holds the row lock.
func (r *EventRepository) SetStatus(ctx context.Context, id string, status model.EventStatus) error {
	tag, err := r.store.db(ctx).Exec(ctx,
		`UPDATE events SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return storageErr("update event status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	return nil
}

// AddTicketsSold adjusts the tickets_sold counter by delta (negative on
// cancellation). Only the booking service calls this, inside a transaction
// that already holds the event row lock.
func (r *EventRepository) AddTicketsSold(ctx context.Context, id string, delta int) error {
	tag, err := r.store.db(ctx).Exec(ctx,
		`UPDATE events SET tickets_sold = tickets_sold + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return storageErr("update tickets_sold", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	return nil
}

// SetSoldOut persists the derived sold-out flag.
func (r *EventRepository) SetSoldOut(ctx context.Context, id string, soldOut bool) error {
	tag, err := r.store.db(ctx).Exec(ctx,
		`UPDATE events SET sold_out = $2 WHERE id = $1`, id, soldOut)
	if err != nil {
		return storageErr("update sold_out", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	return nil
}

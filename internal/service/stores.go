// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer. The interfaces below are
// what the services need from storage; internal/repository satisfies them
// against Postgres and the tests satisfy them in memory.
package service

import (
	"context"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// TxRunner runs a function inside one atomic transaction. Store calls made
// with the context it passes to fn join that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore is the catalog of events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	SetStatus(ctx context.Context, id string, status model.EventStatus) error
	AddTicketsSold(ctx context.Context, id string, delta int) error
	SetSoldOut(ctx context.Context, id string, soldOut bool) error
}

// InventoryStore is the per-type capacity inventory.
type InventoryStore interface {
	Insert(ctx context.Context, tt *model.TicketType) error
	GetByID(ctx context.Context, eventID, id string) (*model.TicketType, error)
	GetForUpdate(ctx context.Context, eventID, id string) (*model.TicketType, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.TicketType, error)
	Reserve(ctx context.Context, eventID, id string, quantity int) error
	Release(ctx context.Context, eventID, id string, quantity int) error
	AllSoldOut(ctx context.Context, eventID string) (bool, error)
}

// LedgerStore is the append-mostly store of issued tickets.
type LedgerStore interface {
	InsertBatch(ctx context.Context, tickets []model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	GetForUpdate(ctx context.Context, id string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error)
	CountActiveByUserAndEvent(ctx context.Context, userID, eventID string) (int, error)
	UpdateStatus(ctx context.Context, id string, next model.TicketStatus) error
}

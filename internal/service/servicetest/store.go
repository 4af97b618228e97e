// Package servicetest provides an in-memory store implementing the
// service layer's storage interfaces, for use in tests. WithTx holds a
// mutex for the whole transaction and rolls the state back on error,
// which gives tests the same serialisation and atomicity guarantees the
// Postgres store provides through row locks and transactions.
package servicetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// Store holds all state in maps keyed by ID. Tests may seed and inspect
// the maps directly; concurrent access during a test goes through the
// store methods, which lock.
type Store struct {
	mu      sync.Mutex
	Events  map[string]model.Event
	Types   map[string]model.TicketType
	Tickets map[string]model.Ticket

	// Fault injection.
	ReserveConflicts int   // Reserve fails with ErrConcurrencyConflict this many times
	InsertBatchErr   error // InsertBatch fails with this error once
}

// New returns an empty store.
func New() *Store {
	return &Store{
		Events:  make(map[string]model.Event),
		Types:   make(map[string]model.TicketType),
		Tickets: make(map[string]model.Ticket),
	}
}

type txKey struct{}

// WithTx serialises transactions behind the mutex and restores a snapshot
// when fn fails, so a failed transaction leaves no partial writes.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapEvents := copyMap(s.Events)
	snapTypes := copyMap(s.Types)
	snapTickets := copyMap(s.Tickets)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.Events = snapEvents
		s.Types = snapTypes
		s.Tickets = snapTickets
		return err
	}
	return nil
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// lock guards reads and writes issued outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ── EventStore ───────────────────────────────────────────────────────────────

func (s *Store) Create(ctx context.Context, e *model.Event) error {
	defer s.lock(ctx)()
	s.Events[e.ID] = *e
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.Event, error) {
	defer s.lock(ctx)()
	e, ok := s.Events[id]
	if !ok {
		return nil, fmt.Errorf("event: %w", model.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return s.GetByID(ctx, id)
}

func (s *Store) List(ctx context.Context) ([]model.Event, error) {
	defer s.lock(ctx)()
	events := make([]model.Event, 0, len(s.Events))
	for _, e := range s.Events {
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.EventStatus) error {
	defer s.lock(ctx)()
	e, ok := s.Events[id]
	if !ok {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	e.Status = status
	s.Events[id] = e
	return nil
}

func (s *Store) AddTicketsSold(ctx context.Context, id string, delta int) error {
	defer s.lock(ctx)()
	e, ok := s.Events[id]
	if !ok {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	e.TicketsSold += delta
	s.Events[id] = e
	return nil
}

func (s *Store) SetSoldOut(ctx context.Context, id string, soldOut bool) error {
	defer s.lock(ctx)()
	e, ok := s.Events[id]
	if !ok {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	e.SoldOut = soldOut
	s.Events[id] = e
	return nil
}

// ── InventoryStore ───────────────────────────────────────────────────────────

func (s *Store) InsertTicketType(ctx context.Context, tt *model.TicketType) error {
	defer s.lock(ctx)()
	s.Types[tt.ID] = *tt
	return nil
}

func (s *Store) typeByID(eventID, id string) (model.TicketType, bool) {
	tt, ok := s.Types[id]
	if !ok || tt.EventID != eventID {
		return model.TicketType{}, false
	}
	return tt, true
}

func (s *Store) GetTicketType(ctx context.Context, eventID, id string) (*model.TicketType, error) {
	defer s.lock(ctx)()
	tt, ok := s.typeByID(eventID, id)
	if !ok {
		return nil, fmt.Errorf("ticket type: %w", model.ErrNotFound)
	}
	return &tt, nil
}

func (s *Store) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	defer s.lock(ctx)()
	var types []model.TicketType
	for _, tt := range s.Types {
		if tt.EventID == eventID {
			types = append(types, tt)
		}
	}
	return types, nil
}

func (s *Store) Reserve(ctx context.Context, eventID, id string, quantity int) error {
	defer s.lock(ctx)()
	if s.ReserveConflicts > 0 {
		s.ReserveConflicts--
		return fmt.Errorf("injected: %w", model.ErrConcurrencyConflict)
	}
	tt, ok := s.typeByID(eventID, id)
	if !ok {
		return fmt.Errorf("ticket type: %w", model.ErrNotFound)
	}
	if tt.Available < quantity {
		return fmt.Errorf("reserve tickets: %w", model.ErrConcurrencyConflict)
	}
	tt.Available -= quantity
	s.Types[id] = tt
	return nil
}

func (s *Store) Release(ctx context.Context, eventID, id string, quantity int) error {
	defer s.lock(ctx)()
	tt, ok := s.typeByID(eventID, id)
	if !ok {
		return fmt.Errorf("ticket type: %w", model.ErrNotFound)
	}
	if tt.Available+quantity > tt.Total {
		quantity = tt.Total - tt.Available
	}
	tt.Available += quantity
	s.Types[id] = tt
	return nil
}

func (s *Store) AllSoldOut(ctx context.Context, eventID string) (bool, error) {
	defer s.lock(ctx)()
	for _, tt := range s.Types {
		if tt.EventID == eventID && tt.Available > 0 {
			return false, nil
		}
	}
	return true, nil
}

// ── LedgerStore ──────────────────────────────────────────────────────────────

func (s *Store) InsertBatch(ctx context.Context, tickets []model.Ticket) error {
	defer s.lock(ctx)()
	if s.InsertBatchErr != nil {
		err := s.InsertBatchErr
		s.InsertBatchErr = nil
		return err
	}
	for _, t := range tickets {
		s.Tickets[t.ID] = t
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	defer s.lock(ctx)()
	t, ok := s.Tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket: %w", model.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	defer s.lock(ctx)()
	var tickets []model.Ticket
	for _, t := range s.Tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (s *Store) ListTicketsByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	defer s.lock(ctx)()
	var tickets []model.Ticket
	for _, t := range s.Tickets {
		if t.EventID == eventID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (s *Store) CountActiveByUserAndEvent(ctx context.Context, userID, eventID string) (int, error) {
	defer s.lock(ctx)()
	count := 0
	for _, t := range s.Tickets {
		if t.UserID == userID && t.EventID == eventID && t.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, next model.TicketStatus) error {
	defer s.lock(ctx)()
	t, ok := s.Tickets[id]
	if !ok {
		return fmt.Errorf("ticket: %w", model.ErrNotFound)
	}
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%s to %s: %w", t.Status, next, model.ErrInvalidStatusTransition)
	}
	t.Status = next
	s.Tickets[id] = t
	return nil
}

// ── Interface adapters ───────────────────────────────────────────────────────
//
// The production stores are three repositories sharing one pool; the
// in-memory store mirrors that with three views over one state.

// Inventory adapts Store to the inventory interface.
type Inventory struct{ S *Store }

func (v Inventory) Insert(ctx context.Context, tt *model.TicketType) error {
	return v.S.InsertTicketType(ctx, tt)
}
func (v Inventory) GetByID(ctx context.Context, eventID, id string) (*model.TicketType, error) {
	return v.S.GetTicketType(ctx, eventID, id)
}
func (v Inventory) GetForUpdate(ctx context.Context, eventID, id string) (*model.TicketType, error) {
	return v.S.GetTicketType(ctx, eventID, id)
}
func (v Inventory) ListByEvent(ctx context.Context, eventID string) ([]model.TicketType, error) {
	return v.S.ListTicketTypes(ctx, eventID)
}
func (v Inventory) Reserve(ctx context.Context, eventID, id string, quantity int) error {
	return v.S.Reserve(ctx, eventID, id, quantity)
}
func (v Inventory) Release(ctx context.Context, eventID, id string, quantity int) error {
	return v.S.Release(ctx, eventID, id, quantity)
}
func (v Inventory) AllSoldOut(ctx context.Context, eventID string) (bool, error) {
	return v.S.AllSoldOut(ctx, eventID)
}

// Ledger adapts Store to the ledger interface.
type Ledger struct{ S *Store }

func (v Ledger) InsertBatch(ctx context.Context, tickets []model.Ticket) error {
	return v.S.InsertBatch(ctx, tickets)
}
func (v Ledger) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	return v.S.GetTicket(ctx, id)
}
func (v Ledger) GetForUpdate(ctx context.Context, id string) (*model.Ticket, error) {
	return v.S.GetTicket(ctx, id)
}
func (v Ledger) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	return v.S.ListTicketsByUser(ctx, userID)
}
func (v Ledger) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	return v.S.ListTicketsByEvent(ctx, eventID)
}
func (v Ledger) CountActiveByUserAndEvent(ctx context.Context, userID, eventID string) (int, error) {
	return v.S.CountActiveByUserAndEvent(ctx, userID, eventID)
}
func (v Ledger) UpdateStatus(ctx context.Context, id string, next model.TicketStatus) error {
	return v.S.UpdateStatus(ctx, id, next)
}

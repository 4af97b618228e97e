// Package model defines the core domain types for the ticket inventory
// and booking system.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// CanTransitionTo reports whether the event lifecycle permits moving to next.
// Allowed: draft→published, draft→cancelled, published→cancelled,
// published→completed. Cancelled and completed are terminal.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case EventStatusDraft:
		return next == EventStatusPublished || next == EventStatusCancelled
	case EventStatusPublished:
		return next == EventStatusCancelled || next == EventStatusCompleted
	default:
		return false
	}
}

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// Event represents a bookable event created by an organizer.
type Event struct {
	ID                string      `json:"id"`
	OrganizerID       string      `json:"organizer_id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Venue             string      `json:"venue"`
	Status            EventStatus `json:"status"`
	MaxTicketsPerUser int         `json:"max_tickets_per_user"`
	TotalCapacity     int         `json:"total_capacity"`
	TicketsSold       int         `json:"tickets_sold"`
	SoldOut           bool        `json:"sold_out"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           time.Time   `json:"end_date"`
	CreatedAt         time.Time   `json:"created_at"`
}

// IsBookable reports whether the event currently accepts purchases.
func (e *Event) IsBookable() bool {
	return e.Status == EventStatusPublished
}

// Remaining returns the number of unsold tickets across all ticket types.
func (e *Event) Remaining() int {
	return e.TotalCapacity - e.TicketsSold
}

// TicketType is a priced admission category with its own capacity pool,
// scoped to one event. Total is fixed at creation; Available is mutated
// only by the booking service inside its transactions.
type TicketType struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Total     int             `json:"total"`
	Available int             `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}

// TicketStatus is the lifecycle state of an issued ticket.
type TicketStatus string

const (
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusPurchased TicketStatus = "purchased"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusRefunded  TicketStatus = "refunded"
)

// CanTransitionTo reports whether the ticket state machine permits moving
// to next: reserved→purchased, purchased→used, purchased→cancelled,
// purchased→refunded. Used, cancelled, and refunded are terminal.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case TicketStatusReserved:
		return next == TicketStatusPurchased
	case TicketStatusPurchased:
		return next == TicketStatusUsed || next == TicketStatusCancelled || next == TicketStatusRefunded
	default:
		return false
	}
}

// Terminal reports whether the status permits no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusUsed || s == TicketStatusCancelled || s == TicketStatusRefunded
}

// Active reports whether the ticket counts against the holder's per-user
// limit. Cancelled and refunded tickets free their slot.
func (s TicketStatus) Active() bool {
	return s != TicketStatusCancelled && s != TicketStatusRefunded
}

// Ticket is a ledger entry for one physical ticket. Price is a snapshot of
// the ticket type's price at purchase time and never changes afterwards.
type Ticket struct {
	ID              string          `json:"id"`
	TicketTypeID    string          `json:"ticket_type_id"`
	EventID         string          `json:"event_id"`
	UserID          string          `json:"user_id"`
	Price           decimal.Decimal `json:"price"`
	Status          TicketStatus    `json:"status"`
	TicketCode      string          `json:"ticket_code"`
	IsTransferred   bool            `json:"is_transferred"`
	TransferredTo   string          `json:"transferred_to,omitempty"`
	SpecialRequests string          `json:"special_requests,omitempty"`
	PurchaseDate    time.Time       `json:"purchase_date"`
}

// Role gates event creation and cross-user cancellation rights.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Caller is the already-authenticated identity making a request. Identity
// verification happens upstream; this core trusts the supplied values.
type Caller struct {
	ID   string
	Role Role
}

// CanCreateEvents reports whether the caller may create events.
func (c Caller) CanCreateEvents() bool {
	return c.Role == RoleOrganizer || c.Role == RoleAdmin
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CreateTicketTypeRequest describes one capacity pool of a new event.
type CreateTicketTypeRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Total int             `json:"total"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description"`
	Venue             string                    `json:"venue"`
	MaxTicketsPerUser int                       `json:"max_tickets_per_user"`
	StartDate         time.Time                 `json:"start_date"`
	EndDate           time.Time                 `json:"end_date"`
	TicketTypes       []CreateTicketTypeRequest `json:"ticket_types"`
}

// PurchaseRequest is the payload for buying tickets of one type.
type PurchaseRequest struct {
	TicketTypeID    string `json:"ticket_type_id"`
	Quantity        int    `json:"quantity"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// SetStatusRequest is the payload for an event lifecycle transition.
type SetStatusRequest struct {
	Status EventStatus `json:"status"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ticketgrid/ticketgrid/internal/model"
	"github.com/ticketgrid/ticketgrid/internal/service"
)

// API holds all HTTP handlers for the booking service.
type API struct {
	events  *service.EventService
	booking *service.BookingService
}

// NewAPI constructs the handler set.
func NewAPI(events *service.EventService, booking *service.BookingService) *API {
	return &API{events: events, booking: booking}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// callerFrom reads the identity the auth proxy attached to the request.
// Verification happened upstream; an absent role defaults to user.
func callerFrom(r *http.Request) model.Caller {
	role := model.Role(r.Header.Get("X-User-Role"))
	switch role {
	case model.RoleUser, model.RoleOrganizer, model.RoleAdmin:
	default:
		role = model.RoleUser
	}
	return model.Caller{
		ID:   r.Header.Get("X-User-ID"),
		Role: role,
	}
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (a *API) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	event, err := a.events.CreateEvent(r.Context(), callerFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (a *API) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := a.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// SetEventStatus handles PATCH /events/{id}/status
func (a *API) SetEventStatus(w http.ResponseWriter, r *http.Request) {
	var req model.SetStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := a.events.SetStatus(r.Context(), callerFrom(r), id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

// ListTicketTypes handles GET /events/{id}/ticket-types
func (a *API) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := a.events.ListTicketTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if types == nil {
		types = []model.TicketType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// ─── Booking handlers ─────────────────────────────────────────────────────────

// Purchase handles POST /events/{id}/purchase
func (a *API) Purchase(w http.ResponseWriter, r *http.Request) {
	var req model.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	tickets, err := a.booking.Purchase(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tickets)
}

// GetTicket handles GET /tickets/{id}
func (a *API) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := a.booking.GetTicket(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// CancelTicket handles POST /tickets/{id}/cancel
func (a *API) CancelTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.booking.Cancel(r.Context(), callerFrom(r), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.TicketStatusCancelled)})
}

// ListUserTickets handles GET /users/{id}/tickets
func (a *API) ListUserTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := a.booking.ListUserTickets(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// ListEventTickets handles GET /events/{id}/tickets
func (a *API) ListEventTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := a.booking.ListEventTickets(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketgrid/ticketgrid/internal/model"
	"github.com/ticketgrid/ticketgrid/internal/service/servicetest"
)

func newEventEnv() (*EventService, *servicetest.Store) {
	f := servicetest.New()
	svc := NewEventService(f, f, servicetest.Inventory{S: f}, zerolog.Nop())
	return svc, f
}

func validCreateRequest() model.CreateEventRequest {
	start := time.Now().Add(24 * time.Hour)
	return model.CreateEventRequest{
		Name:              "Go Conference",
		Description:       "Two days of talks",
		Venue:             "City Hall",
		MaxTicketsPerUser: 4,
		StartDate:         start,
		EndDate:           start.Add(48 * time.Hour),
		TicketTypes: []model.CreateTicketTypeRequest{
			{Name: "Regular", Price: decimal.NewFromInt(50), Total: 200},
			{Name: "VIP", Price: decimal.NewFromInt(150), Total: 20},
		},
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	organizer := model.Caller{ID: "org-1", Role: model.RoleOrganizer}

	t.Run("creates event with ticket types", func(t *testing.T) {
		svc, f := newEventEnv()

		event, err := svc.CreateEvent(ctx, organizer, validCreateRequest())
		require.NoError(t, err)

		assert.Equal(t, model.EventStatusDraft, event.Status)
		assert.Equal(t, "org-1", event.OrganizerID)
		assert.Equal(t, 220, event.TotalCapacity)
		assert.Equal(t, 0, event.TicketsSold)
		assert.False(t, event.SoldOut)
		assert.NotEmpty(t, event.ID)

		types, err := svc.ListTicketTypes(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, types, 2)
		for _, tt := range types {
			assert.Equal(t, tt.Total, tt.Available, "available starts at total")
			assert.Equal(t, event.ID, tt.EventID)
		}
		assert.Len(t, f.Events, 1)
	})

	t.Run("plain users may not create events", func(t *testing.T) {
		svc, _ := newEventEnv()
		_, err := svc.CreateEvent(ctx, model.Caller{ID: "u-1", Role: model.RoleUser}, validCreateRequest())
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("validation", func(t *testing.T) {
		cases := map[string]func(*model.CreateEventRequest){
			"empty name":          func(r *model.CreateEventRequest) { r.Name = "  " },
			"zero per-user limit": func(r *model.CreateEventRequest) { r.MaxTicketsPerUser = 0 },
			"end before start":    func(r *model.CreateEventRequest) { r.EndDate = r.StartDate.Add(-time.Hour) },
			"no ticket types":     func(r *model.CreateEventRequest) { r.TicketTypes = nil },
			"zero total": func(r *model.CreateEventRequest) {
				r.TicketTypes[0].Total = 0
			},
			"negative price": func(r *model.CreateEventRequest) {
				r.TicketTypes[0].Price = decimal.NewFromInt(-1)
			},
			"unnamed ticket type": func(r *model.CreateEventRequest) {
				r.TicketTypes[0].Name = ""
			},
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				svc, f := newEventEnv()
				req := validCreateRequest()
				mutate(&req)

				_, err := svc.CreateEvent(ctx, organizer, req)
				assert.ErrorIs(t, err, model.ErrInvalidRequest)
				assert.Empty(t, f.Events, "nothing persisted on validation failure")
			})
		}
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	organizer := model.Caller{ID: "org-1", Role: model.RoleOrganizer}
	admin := model.Caller{ID: "root", Role: model.RoleAdmin}

	seed := func(f *servicetest.Store, status model.EventStatus) {
		f.Events["ev-1"] = model.Event{
			ID:                "ev-1",
			OrganizerID:       "org-1",
			Status:            status,
			MaxTicketsPerUser: 2,
		}
	}

	t.Run("allowed transitions", func(t *testing.T) {
		allowed := []struct{ from, to model.EventStatus }{
			{model.EventStatusDraft, model.EventStatusPublished},
			{model.EventStatusDraft, model.EventStatusCancelled},
			{model.EventStatusPublished, model.EventStatusCancelled},
			{model.EventStatusPublished, model.EventStatusCompleted},
		}
		for _, tc := range allowed {
			svc, f := newEventEnv()
			seed(f, tc.from)
			require.NoError(t, svc.SetStatus(ctx, organizer, "ev-1", tc.to), "%s to %s", tc.from, tc.to)
			assert.Equal(t, tc.to, f.Events["ev-1"].Status)
		}
	})

	t.Run("rejected transitions", func(t *testing.T) {
		rejected := []struct{ from, to model.EventStatus }{
			{model.EventStatusCompleted, model.EventStatusPublished},
			{model.EventStatusCancelled, model.EventStatusPublished},
			{model.EventStatusDraft, model.EventStatusCompleted},
			{model.EventStatusPublished, model.EventStatusDraft},
		}
		for _, tc := range rejected {
			svc, f := newEventEnv()
			seed(f, tc.from)
			err := svc.SetStatus(ctx, organizer, "ev-1", tc.to)
			assert.ErrorIs(t, err, model.ErrInvalidTransition, "%s to %s", tc.from, tc.to)
			assert.Equal(t, tc.from, f.Events["ev-1"].Status, "status unchanged")
		}
	})

	t.Run("unknown status value", func(t *testing.T) {
		svc, f := newEventEnv()
		seed(f, model.EventStatusDraft)
		err := svc.SetStatus(ctx, organizer, "ev-1", "archived")
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})

	t.Run("only owner or admin", func(t *testing.T) {
		svc, f := newEventEnv()
		seed(f, model.EventStatusDraft)

		err := svc.SetStatus(ctx, model.Caller{ID: "org-2", Role: model.RoleOrganizer}, "ev-1", model.EventStatusPublished)
		assert.ErrorIs(t, err, model.ErrUnauthorized)

		assert.NoError(t, svc.SetStatus(ctx, admin, "ev-1", model.EventStatusPublished))
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := newEventEnv()
		err := svc.SetStatus(ctx, organizer, "nope", model.EventStatusPublished)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestListTicketTypes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventEnv()

	_, err := svc.ListTicketTypes(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ticketgrid/ticketgrid/internal/database"
	"github.com/ticketgrid/ticketgrid/internal/handler"
	"github.com/ticketgrid/ticketgrid/internal/repository"
	"github.com/ticketgrid/ticketgrid/internal/service"
)

func main() {
	ctx := context.Background()
	log := newLogger()

	// ── 1. Connect to PostgreSQL and apply the schema ─────────────────────
	pool, err := database.NewPool(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	log.Info().Msg("connected to postgres")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	store := repository.NewStore(pool)
	eventRepo := repository.NewEventRepository(store)
	typeRepo := repository.NewTicketTypeRepository(store, log)
	ticketRepo := repository.NewTicketRepository(store)

	eventSvc := service.NewEventService(store, eventRepo, typeRepo, log)
	bookingSvc := service.NewBookingService(store, eventRepo, typeRepo, ticketRepo, log)
	api := handler.NewAPI(eventSvc, bookingSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(log))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", api.CreateEvent)
		r.Get("/", api.ListEvents)
		r.Get("/{id}", api.GetEvent)
		r.Patch("/{id}/status", api.SetEventStatus)
		r.Get("/{id}/ticket-types", api.ListTicketTypes)
		r.Get("/{id}/tickets", api.ListEventTickets)
		r.Post("/{id}/purchase", api.Purchase)
	})
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{id}", api.GetTicket)
		r.Post("/{id}/cancel", api.CancelTicket)
	})
	r.Get("/users/{id}/tickets", api.ListUserTickets)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package metrics exposes Prometheus instruments for the booking core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgrid_purchases_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	purchaseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketgrid_purchase_duration_seconds",
			Help:    "Duration of purchase transactions including retries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	cancelTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgrid_cancellations_total",
			Help: "Cancellation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketgrid_tickets_issued_total",
			Help: "Individual tickets issued",
		},
	)
)

// ObservePurchase records one purchase attempt.
func ObservePurchase(outcome string, issued int, elapsed time.Duration) {
	purchaseTotal.WithLabelValues(outcome).Inc()
	purchaseDuration.Observe(elapsed.Seconds())
	if issued > 0 {
		ticketsIssued.Add(float64(issued))
	}
}

// ObserveCancel records one cancellation attempt.
func ObserveCancel(outcome string) {
	cancelTotal.WithLabelValues(outcome).Inc()
}

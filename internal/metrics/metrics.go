// Package metrics defines the Prometheus collectors for the matchmaking
// service: HTTP throughput and latency, business counters for the offer
// lifecycle, and resilience (retry / circuit breaker) tracking.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0},
	}, []string{"method", "endpoint"})

	HTTPErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total HTTP errors",
	}, []string{"method", "endpoint", "error_type"})

	TradeOffersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trade_offers_created_total",
		Help: "Total trade offers created",
	})

	TradeOffersAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trade_offers_accepted_total",
		Help: "Total trade offers accepted",
	})

	TradeOffersRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trade_offers_rejected_total",
		Help: "Total trade offers rejected",
	})

	TradeOffersByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trade_offers_by_status",
		Help: "Number of trade offers by status",
	}, []string{"status"})

	RetryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts",
	}, []string{"operation"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker current state (0=closed, 1=open, 2=half-open)",
	}, []string{"circuit_name"})

	CircuitBreakerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"circuit_name"})
)

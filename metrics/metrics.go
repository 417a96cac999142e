package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the request pipeline
const (
	OutcomeSuccess     = "success"
	OutcomeApplication = "application_error"
	OutcomeTransport   = "transport_error"
	OutcomeAuthExpired = "auth_expired"
	OutcomeCancelled   = "cancelled"
)

// Refresh results
const (
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
	RefreshShared    = "shared"
	RefreshSkipped   = "skipped"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clingclang_api_requests_total",
		Help: "API requests by pipeline outcome",
	}, []string{"outcome"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clingclang_api_request_duration_seconds",
		Help:    "Round trip time of single API attempts",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10), // 10ms to ~5s
	}, []string{"method"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clingclang_refresh_total",
		Help: "Access token refreshes; shared counts waiters that joined an in-flight refresh",
	}, []string{"result"})

	Replays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clingclang_request_replays_total",
		Help: "Requests replayed after a refresh",
	})

	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clingclang_auth_events_total",
		Help: "Auth events emitted on the bus",
	}, []string{"kind"})
)

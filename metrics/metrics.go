// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moviecatalog"

var (
	// HTTPRequestsTotal counts handled requests.
	// Labels: method, route (gin full path), status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// PeopleCreated counts actors and producers materialised from a cast list.
	PeopleCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "people_created_total",
			Help:      "People created implicitly by cast reconciliation",
		},
		[]string{"role"},
	)

	// BackReferenceUpdates counts movie id additions and removals on people.
	// Labels: role, op ("add" or "pull").
	BackReferenceUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cast_backreference_updates_total",
			Help:      "Back-reference writes issued by cast reconciliation",
		},
		[]string{"role", "op"},
	)

	FeedbackWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_writes_total",
			Help:      "Feedback records created or updated",
		},
		[]string{"kind"},
	)

	RatingRecomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_recompute_failures_total",
			Help:      "Aggregate rating recomputations that failed after a feedback write",
		},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "File uploads by outcome",
		},
		[]string{"provider", "outcome"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker",
		},
		[]string{"type", "outcome"},
	)
)

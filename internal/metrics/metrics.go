package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booktable"

var (
	once sync.Once

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	conflictDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_decisions_total",
			Help:      "Count of user decisions on booking conflicts.",
		},
		[]string{"decision"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled by the user.",
		},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Count of backend API requests by route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of backend API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Count of cache lookups by backend and result.",
		},
		[]string{"backend", "result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			submissions,
			conflictDecisions,
			bookingCancelled,
			apiRequests,
			apiDuration,
			cacheLookups,
		)
	})
}

func IncSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func IncConflictDecision(decision string) {
	conflictDecisions.WithLabelValues(decision).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

// ObserveAPIRequest records one backend call. Code 0 means the request
// never got a response.
func ObserveAPIRequest(method, route string, code int, took time.Duration) {
	apiRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	apiDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func IncCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(backend, result).Inc()
}

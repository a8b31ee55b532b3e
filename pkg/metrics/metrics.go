package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP collectors shared by both services.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Domain collectors.
var (
	// RoleFallbacks counts principals whose stored role could not be parsed
	// and were degraded to the default role.
	RoleFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbac_role_fallback_total",
			Help: "Unknown role values that fell back to the default role.",
		},
		[]string{"role"},
	)

	// AuthFailures counts rejected bearer tokens by error code.
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Requests rejected by the authorization middleware.",
		},
		[]string{"code"},
	)

	// PublishFailures counts events that were dropped after all retries.
	PublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_publish_failures_total",
			Help: "Events dropped after exhausting publish retries.",
		},
		[]string{"event_type"},
	)

	// ConsumedEvents counts consumed deliveries by outcome (ack, requeue, drop).
	ConsumedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_consumed_total",
			Help: "Consumed event deliveries by outcome.",
		},
		[]string{"queue", "outcome"},
	)

	// SessionsRevoked counts refresh tokens revoked by reason.
	SessionsRevoked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_revoked_total",
			Help: "Refresh tokens revoked, by reason.",
		},
		[]string{"reason"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			RoleFallbacks,
			AuthFailures,
			PublishFailures,
			ConsumedEvents,
			SessionsRevoked,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count, latency and in-flight requests. The route
// function is evaluated after the request has been served so routers that
// resolve patterns lazily (chi) report the matched pattern.
func Instrument(route func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)

			label := "unmatched"
			if route != nil {
				if p := route(r); p != "" {
					label = p
				}
			}
			status := strconv.Itoa(sw.code)

			httpRequestDuration.WithLabelValues(r.Method, label, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, label, status).Inc()
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

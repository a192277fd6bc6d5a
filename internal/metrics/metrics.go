package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles prometheus collectors used by the report server.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	AuthFailures       prometheus.Counter
	RateLimitDropped   prometheus.Counter
	EventsProcessed    *prometheus.CounterVec
	ServicesRefreshes  prometheus.Counter
	ServicesRefreshErr prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_report_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sla_report_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_report_auth_failures_total",
			Help: "Total number of auth failures.",
		}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_report_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_report_events_total",
			Help: "Total number of test result events by outcome.",
		}, []string{"outcome"}),
		ServicesRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_report_services_refresh_total",
			Help: "Total number of services list refresh attempts.",
		}),
		ServicesRefreshErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_report_services_refresh_errors_total",
			Help: "Total number of services list refresh failures.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.AuthFailures,
		m.RateLimitDropped,
		m.EventsProcessed,
		m.ServicesRefreshes,
		m.ServicesRefreshErr,
	)

	return m
}

// ObserveBatch records acknowledged and retried events of one batch.
func (m *Metrics) ObserveBatch(total, failed int) {
	if failed > total {
		failed = total
	}
	m.EventsProcessed.WithLabelValues("acknowledged").Add(float64(total - failed))
	m.EventsProcessed.WithLabelValues("retried").Add(float64(failed))
}

// ObserveRefresh records one services list refresh attempt.
func (m *Metrics) ObserveRefresh(err error) {
	m.ServicesRefreshes.Inc()
	if err != nil {
		m.ServicesRefreshErr.Inc()
	}
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded: service names never become labels.
func normalizeRoute(path string) string {
	switch {
	case path == "/healthz" || path == "/readyz" || path == "/metrics":
		return path
	case path == "/api/v1/reports" || path == "/api/v1/reports/stream":
		return path
	case strings.HasPrefix(path, "/api/v1/reports/"):
		return "/api/v1/reports/{service}"
	case path == "/api/v1/events" || path == "/api/v1/services/refresh" || path == "/api/v1/runner/summary":
		return path
	case path == "/api/v1" || strings.HasPrefix(path, "/api/v1/"):
		return "/api/v1/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

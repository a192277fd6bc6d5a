package http

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/handler"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/middleware"
	"github.com/billtrust/sla-monitor-report-lambda/internal/metrics"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/config"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// ReadyFunc сообщает, готов ли сервер обслуживать запросы
type ReadyFunc func(now time.Time) error

// Router настраивает маршруты приложения
type Router struct {
	mux                *http.ServeMux
	reportAPIHandler   *handler.ReportAPIHandler
	eventsAPIHandler   *handler.EventsAPIHandler
	servicesAPIHandler *handler.ServicesAPIHandler
	streamHandler      *handler.ReportStreamHandler
	registry           *prometheus.Registry
	metrics            *metrics.Metrics
	ready              ReadyFunc
	rateLimiter        *middleware.IPRateLimiter
	security           config.SecurityConfig
	logger             *logger.Logger
}

// NewRouter создает новый router; servicesAPIHandler, streamHandler и ready могут быть nil
func NewRouter(
	reportAPIHandler *handler.ReportAPIHandler,
	eventsAPIHandler *handler.EventsAPIHandler,
	servicesAPIHandler *handler.ServicesAPIHandler,
	streamHandler *handler.ReportStreamHandler,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	ready ReadyFunc,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	rt := &Router{
		mux:                http.NewServeMux(),
		reportAPIHandler:   reportAPIHandler,
		eventsAPIHandler:   eventsAPIHandler,
		servicesAPIHandler: servicesAPIHandler,
		streamHandler:      streamHandler,
		registry:           registry,
		metrics:            m,
		ready:              ready,
		security:           security,
		logger:             logger,
	}
	if security.RateLimitRPS > 0 {
		rt.rateLimiter = middleware.NewIPRateLimiter(security.RateLimitRPS, security.RateLimitBurst)
	}
	return rt
}

// StartCleanup освобождает лимитеры неактивных клиентов до отмены ctx
func (rt *Router) StartCleanup(ctx context.Context) {
	if rt.rateLimiter != nil {
		go rt.rateLimiter.Cleanup(ctx)
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health endpoints are unauthenticated for probes.
	rt.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if rt.ready != nil {
			if err := rt.ready(time.Now()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if rt.registry != nil {
		rt.mux.Handle("GET /metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	authCfg := middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}
	var onDrop func()
	if rt.metrics != nil {
		authCfg.OnFailure = rt.metrics.AuthFailures.Inc
		onDrop = rt.metrics.RateLimitDropped.Inc
	}
	authMiddleware := middleware.Auth(authCfg, rt.logger)

	protect := func(h http.HandlerFunc) http.Handler {
		var wrapped http.Handler = authMiddleware(h)
		if rt.rateLimiter != nil {
			wrapped = middleware.RateLimit(rt.rateLimiter, onDrop)(wrapped)
		}
		return wrapped
	}

	// API endpoints
	rt.mux.Handle("GET /api/v1/reports", protect(rt.reportAPIHandler.ListReports))
	rt.mux.Handle("GET /api/v1/reports/{service}", protect(rt.reportAPIHandler.GetReport))
	rt.mux.Handle("POST /api/v1/events", protect(rt.eventsAPIHandler.Submit))
	if rt.streamHandler != nil {
		rt.mux.Handle("GET /api/v1/reports/stream", protect(rt.streamHandler.HandleConnection))
	}
	if rt.servicesAPIHandler != nil {
		rt.mux.Handle("POST /api/v1/services/refresh", protect(rt.servicesAPIHandler.Refresh))
		rt.mux.Handle("GET /api/v1/runner/summary", protect(rt.servicesAPIHandler.Summary))
	}

	// Применяем middleware
	var handler http.Handler = rt.mux
	handler = middleware.Logger(rt.logger)(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

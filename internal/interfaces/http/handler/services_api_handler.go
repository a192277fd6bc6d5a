package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/middleware"
	"github.com/billtrust/sla-monitor-report-lambda/internal/metrics"
	"github.com/billtrust/sla-monitor-report-lambda/internal/scheduler"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type servicesRunner interface {
	RunOnce(ctx context.Context, force bool) (*usecase.RefreshServicesListResult, error)
	Snapshot() scheduler.Snapshot
}

// ServicesAPIHandler управляет обновлением services.json
type ServicesAPIHandler struct {
	runner  servicesRunner
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewServicesAPIHandler(runner *scheduler.Runner, m *metrics.Metrics, log *logger.Logger) *ServicesAPIHandler {
	return newServicesAPIHandler(runner, m, log)
}

func newServicesAPIHandler(runner servicesRunner, m *metrics.Metrics, log *logger.Logger) *ServicesAPIHandler {
	return &ServicesAPIHandler{
		runner:  runner,
		metrics: m,
		logger:  log,
	}
}

// Refresh обрабатывает POST /api/v1/services/refresh?force=true
func (h *ServicesAPIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "force must be a boolean"})
			return
		}
		force = parsed
	}

	result, err := h.runner.RunOnce(r.Context(), force)
	if h.metrics != nil {
		h.metrics.ObserveRefresh(err)
	}
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// Summary обрабатывает GET /api/v1/runner/summary
func (h *ServicesAPIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.runner.Snapshot())
}

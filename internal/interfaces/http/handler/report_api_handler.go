package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/middleware"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type summaryReader interface {
	Execute(ctx context.Context, serviceName string) (*dto.ReportSummaryDTO, error)
}

type reportLister interface {
	Execute(ctx context.Context, cmd usecase.ListReportsCommand) (*port.ReportIndexPage, error)
}

// ReportAPIHandler отдает опубликованные сводки и индекс отчетов
type ReportAPIHandler struct {
	summaries summaryReader
	lister    reportLister
	logger    *logger.Logger
}

// NewReportAPIHandler создает handler, listReportsUC может быть nil, если индекс не настроен
func NewReportAPIHandler(
	getSummaryUC *usecase.GetReportSummaryUseCase,
	listReportsUC *usecase.ListReportsUseCase,
	log *logger.Logger,
) *ReportAPIHandler {
	h := &ReportAPIHandler{
		summaries: getSummaryUC,
		logger:    log,
	}
	if listReportsUC != nil {
		h.lister = listReportsUC
	}
	return h
}

type reportIndexItemResponse struct {
	ServiceName    string         `json:"serviceName"`
	Environment    string         `json:"environment"`
	ReportID       string         `json:"reportId"`
	CurrentStatus  string         `json:"currentStatus"`
	SummaryPath    string         `json:"summaryPath"`
	SuccessPercent map[string]int `json:"successPercent"`
	GeneratedOn    string         `json:"generatedOn"`
}

type reportIndexResponse struct {
	Items      []reportIndexItemResponse `json:"items"`
	NextCursor string                    `json:"nextCursor,omitempty"`
}

// GetReport обрабатывает GET /api/v1/reports/{service}
func (h *ReportAPIHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serviceName := r.PathValue("service")
	summary, err := h.summaries.Execute(r.Context(), serviceName)
	switch {
	case errors.Is(err, usecase.ErrInvalidServiceName):
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, usecase.ErrReportNotFound):
		middleware.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
		return
	case err != nil:
		h.logger.Error("Failed to get report summary", err, "service", serviceName)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get report summary"})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}

// ListReports обрабатывает GET /api/v1/reports?limit=&cursor=
func (h *ReportAPIHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.lister == nil {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "report index is not configured"})
		return
	}

	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	page, err := h.lister.Execute(r.Context(), usecase.ListReportsCommand{
		Limit:  limit,
		Cursor: query.Get("cursor"),
	})
	if err != nil {
		h.logger.Error("Failed to list reports", err)
		middleware.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to list reports"})
		return
	}

	response := reportIndexResponse{
		Items:      make([]reportIndexItemResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, entry := range page.Items {
		response.Items = append(response.Items, reportIndexItemResponse{
			ServiceName:    entry.ServiceName,
			Environment:    entry.Environment,
			ReportID:       entry.ReportID,
			CurrentStatus:  entry.CurrentStatus,
			SummaryPath:    entry.SummaryPath,
			SuccessPercent: entry.SuccessPercent,
			GeneratedOn:    entry.GeneratedOn.UTC().Format(time.RFC3339),
		})
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/middleware"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/queue"
	"github.com/billtrust/sla-monitor-report-lambda/internal/metrics"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type batchHandler interface {
	Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error)
}

// EventsAPIHandler принимает события тестов по HTTP и обрабатывает их как пачку SQS
type EventsAPIHandler struct {
	batches      batchHandler
	metrics      *metrics.Metrics
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewEventsAPIHandler создает handler, m может быть nil
func NewEventsAPIHandler(batches *queue.Handler, m *metrics.Metrics, maxBodyBytes int64, log *logger.Logger) *EventsAPIHandler {
	return newEventsAPIHandler(batches, m, maxBodyBytes, log)
}

func newEventsAPIHandler(batches batchHandler, m *metrics.Metrics, maxBodyBytes int64, log *logger.Logger) *EventsAPIHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &EventsAPIHandler{
		batches:      batches,
		metrics:      m,
		maxBodyBytes: maxBodyBytes,
		logger:       log,
	}
}

// Submit обрабатывает POST /api/v1/events.
// Тело: SQS событие с Records, либо одно событие теста, которое оборачивается в запись.
func (h *EventsAPIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	event, err := toSQSEvent(body)
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	response, err := h.batches.Handle(r.Context(), event)
	if err != nil {
		h.logger.Error("Failed to handle events batch", err, "records", len(event.Records))
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to handle events"})
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveBatch(len(event.Records), len(response.BatchItemFailures))
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

func toSQSEvent(body []byte) (events.SQSEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return events.SQSEvent{}, errors.New("request body is empty")
	}

	var probe struct {
		Records json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return events.SQSEvent{}, errors.New("request body must be a JSON object")
	}

	if probe.Records != nil {
		var event events.SQSEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return events.SQSEvent{}, errors.New("invalid SQS event")
		}
		return event, nil
	}

	return events.SQSEvent{
		Records: []events.SQSMessage{
			{
				MessageId: uuid.New().String(),
				Body:      string(trimmed),
			},
		},
	}, nil
}

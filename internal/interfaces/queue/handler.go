package queue

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// Flusher is a buffered sink drained at the end of every batch.
type Flusher interface {
	Flush(ctx context.Context) error
}

type batchProcessor interface {
	Execute(ctx context.Context, items []usecase.BatchItem) *usecase.BatchResult
}

// Handler processes SQS batches and reports partial failures back to the event source mapping.
type Handler struct {
	processor batchProcessor
	flushers  []Flusher
	logger    *logger.Logger
}

func NewHandler(processor *usecase.ProcessBatchUseCase, log *logger.Logger, flushers ...Flusher) *Handler {
	return newHandler(processor, log, flushers...)
}

func newHandler(processor batchProcessor, log *logger.Logger, flushers ...Flusher) *Handler {
	active := make([]Flusher, 0, len(flushers))
	for _, f := range flushers {
		if f != nil {
			active = append(active, f)
		}
	}
	return &Handler{
		processor: processor,
		flushers:  active,
		logger:    log,
	}
}

// Handle never returns an error: failed records are listed in BatchItemFailures
// and stay on the queue, every other record is deleted.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	result := h.processor.Execute(ctx, ToBatchItems(event.Records))

	response := events.SQSEventResponse{
		BatchItemFailures: make([]events.SQSBatchItemFailure, 0),
	}
	for _, failed := range result.Failed() {
		response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: failed.MessageID,
		})
	}

	h.flush(ctx)

	return response, nil
}

func (h *Handler) flush(ctx context.Context) {
	for _, f := range h.flushers {
		if err := f.Flush(ctx); err != nil {
			h.logger.Warn("Failed to flush sink", "error", err.Error())
		}
	}
}

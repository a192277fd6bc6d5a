package service

import (
	"fmt"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// StatusChangeDetector находит смены статуса в полной истории сервиса
type StatusChangeDetector struct{}

// NewStatusChangeDetector создает новый detector
func NewStatusChangeDetector() *StatusChangeDetector {
	return &StatusChangeDetector{}
}

// Detect возвращает смены статуса в хронологическом порядке.
// Исходный статус берется из первой точки, сама первая точка сменой не считается.
// DurationMinutes каждой смены - минуты между соседними отказами с прошлой смены,
// поэтому сумма длительностей равна FailureMinutes за ту же историю.
func (d *StatusChangeDetector) Detect(points []entity.MetricPoint) ([]entity.StatusChangeEvent, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("failed to detect status changes: %w", errs.ErrEmptySeries)
	}

	changes := make([]entity.StatusChangeEvent, 0)

	previous := points[0]
	lastStatusWasSuccess := previous.Succeeded
	lastChange := previous.Timestamp
	running := 0.0

	for _, point := range points[1:] {
		if !point.Succeeded && !previous.Succeeded {
			running += minutesBetween(previous.Timestamp, point.Timestamp)
		}

		if point.Succeeded != lastStatusWasSuccess {
			changes = append(changes, entity.StatusChangeEvent{
				Status:          valueobject.StatusFromSucceeded(point.Succeeded),
				FromTimestamp:   lastChange,
				ToTimestamp:     point.Timestamp,
				DurationMinutes: running,
			})
			lastChange = point.Timestamp
			running = 0
		}

		lastStatusWasSuccess = point.Succeeded
		previous = point
	}

	return changes, nil
}

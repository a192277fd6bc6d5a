package service

import (
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// RangeSummarizer считает статистику доступности по временному окну
type RangeSummarizer struct{}

// NewRangeSummarizer создает новый summarizer
func NewRangeSummarizer() *RangeSummarizer {
	return &RangeSummarizer{}
}

// Summarize считает статистику по точкам, попавшим в окно [now - N дней, now].
// Точки должны быть отсортированы по возрастанию времени.
//
// Outage - переход из успеха в отказ внутри окна. Перед первой точкой окна
// статус считается успешным, поэтому окно, начинающееся с отказа, открывает outage.
// FailureMinutes копятся только между соседними отказами, успех сбрасывает отсчет.
func (s *RangeSummarizer) Summarize(
	points []entity.MetricPoint,
	spec valueobject.TimeRangeSpec,
	now time.Time,
) entity.RangeSummary {
	window := spec.Resolve(now)
	summary := entity.RangeSummary{Range: spec}

	lastStatusWasSuccess := true
	var lastFailure int64
	hasLastFailure := false

	for _, point := range points {
		if !window.ContainsUnix(point.Timestamp) {
			continue
		}

		summary.NumAttempts++

		if point.Succeeded {
			summary.NumSuccesses++
			lastStatusWasSuccess = true
			hasLastFailure = false
			continue
		}

		summary.NumFailures++
		if hasLastFailure {
			summary.FailureMinutes += minutesBetween(lastFailure, point.Timestamp)
		}
		lastFailure = point.Timestamp
		hasLastFailure = true

		if lastStatusWasSuccess {
			summary.NumOutages++
		}
		lastStatusWasSuccess = false
	}

	summary.SuccessPercent = successPercent(summary.NumSuccesses, summary.NumAttempts)
	return summary
}

// successPercent - floor(100 * successes / attempts), 0 при отсутствии успехов
func successPercent(successes, attempts int) int {
	if successes == 0 || attempts == 0 {
		return 0
	}
	return successes * 100 / attempts
}

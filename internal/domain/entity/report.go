package entity

import (
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
	"github.com/google/uuid"
)

// RangeSummary содержит статистику по одному временному окну
type RangeSummary struct {
	Range          valueobject.TimeRangeSpec
	NumAttempts    int
	NumSuccesses   int
	NumFailures    int
	NumOutages     int
	SuccessPercent int
	FailureMinutes float64
}

// StatusChangeEvent описывает переход сервиса в новый статус
type StatusChangeEvent struct {
	Status          valueobject.Status
	FromTimestamp   int64
	ToTimestamp     int64
	DurationMinutes float64
	DetailLocation  string
}

// Report представляет отчет SLA по сервису (Aggregate Root)
// Иммутабелен после сборки
type Report struct {
	id             string
	serviceName    string
	environment    string
	currentStatus  valueobject.Status
	rangeSummaries []RangeSummary
	statusChanges  []StatusChangeEvent
	history        map[valueobject.TimeRangeSpec][]MetricPoint
	generatedOn    time.Time
}

// NewReport создает отчет (Factory Method)
func NewReport(
	serviceName string,
	environment string,
	currentStatus valueobject.Status,
	rangeSummaries []RangeSummary,
	statusChanges []StatusChangeEvent,
	history map[valueobject.TimeRangeSpec][]MetricPoint,
	generatedOn time.Time,
) *Report {
	summaries := make([]RangeSummary, len(rangeSummaries))
	copy(summaries, rangeSummaries)

	changes := make([]StatusChangeEvent, len(statusChanges))
	copy(changes, statusChanges)

	partitions := make(map[valueobject.TimeRangeSpec][]MetricPoint, len(history))
	for spec, points := range history {
		bucket := make([]MetricPoint, len(points))
		copy(bucket, points)
		partitions[spec] = bucket
	}

	return &Report{
		id:             uuid.New().String(),
		serviceName:    serviceName,
		environment:    environment,
		currentStatus:  currentStatus,
		rangeSummaries: summaries,
		statusChanges:  changes,
		history:        partitions,
		generatedOn:    generatedOn.UTC(),
	}
}

// ID возвращает идентификатор сборки отчета
func (r *Report) ID() string {
	return r.id
}

// ServiceName возвращает имя сервиса
func (r *Report) ServiceName() string {
	return r.serviceName
}

// Environment возвращает окружение
func (r *Report) Environment() string {
	return r.environment
}

// CurrentStatus возвращает статус по последнему событию
func (r *Report) CurrentStatus() valueobject.Status {
	return r.currentStatus
}

// RangeSummaries возвращает копию сводок в порядке настройки окон
func (r *Report) RangeSummaries() []RangeSummary {
	summaries := make([]RangeSummary, len(r.rangeSummaries))
	copy(summaries, r.rangeSummaries)
	return summaries
}

// StatusChanges возвращает копию смен статуса в хронологическом порядке
func (r *Report) StatusChanges() []StatusChangeEvent {
	changes := make([]StatusChangeEvent, len(r.statusChanges))
	copy(changes, r.statusChanges)
	return changes
}

// History возвращает точки окна (пустой слайс, если окно не настроено)
func (r *Report) History(spec valueobject.TimeRangeSpec) []MetricPoint {
	points := r.history[spec]
	out := make([]MetricPoint, len(points))
	copy(out, points)
	return out
}

// GeneratedOn возвращает время сборки отчета
func (r *Report) GeneratedOn() time.Time {
	return r.generatedOn
}

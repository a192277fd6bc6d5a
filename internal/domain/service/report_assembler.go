package service

import (
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// AssembleInput содержит результаты вычислений для одного события
type AssembleInput struct {
	Environment    string
	Event          entity.TestResultEvent
	RangeSummaries []entity.RangeSummary
	StatusChanges  []entity.StatusChangeEvent
	History        map[valueobject.TimeRangeSpec][]entity.MetricPoint
}

// ReportAssembler собирает отчет из вычисленных частей
type ReportAssembler struct {
	now func() time.Time
}

// NewReportAssembler создает assembler, now используется для generatedOn
func NewReportAssembler(now func() time.Time) *ReportAssembler {
	if now == nil {
		now = time.Now
	}
	return &ReportAssembler{now: now}
}

// InjectCurrent добавляет точку текущего события в ряд, если в ряду
// еще нет точки с тем же timestamp. Исходный слайс не меняется.
func (a *ReportAssembler) InjectCurrent(points []entity.MetricPoint, current entity.MetricPoint) []entity.MetricPoint {
	for _, point := range points {
		if point.Timestamp == current.Timestamp {
			out := make([]entity.MetricPoint, len(points))
			copy(out, points)
			return out
		}
	}

	out := make([]entity.MetricPoint, 0, len(points)+1)
	out = append(out, current)
	out = append(out, points...)
	return out
}

// Assemble собирает отчет. Статус берется из события, а не из последней точки ряда.
// Минуты округляются до двух знаков только здесь.
func (a *ReportAssembler) Assemble(input AssembleInput) *entity.Report {
	summaries := make([]entity.RangeSummary, len(input.RangeSummaries))
	for i, summary := range input.RangeSummaries {
		summary.FailureMinutes = RoundMinutes(summary.FailureMinutes)
		summaries[i] = summary
	}

	changes := make([]entity.StatusChangeEvent, len(input.StatusChanges))
	for i, change := range input.StatusChanges {
		change.DurationMinutes = RoundMinutes(change.DurationMinutes)
		changes[i] = change
	}

	return entity.NewReport(
		input.Event.ServiceName(),
		input.Environment,
		valueobject.StatusFromSucceeded(input.Event.Point().Succeeded),
		summaries,
		changes,
		input.History,
		a.now(),
	)
}

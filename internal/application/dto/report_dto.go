package dto

import (
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// ReportSummaryDTO представляет содержимое summary.json
type ReportSummaryDTO struct {
	ReportID       string            `json:"reportId"`
	ServiceName    string            `json:"serviceName"`
	Environment    string            `json:"environment"`
	CurrentStatus  string            `json:"currentStatus"`
	RangeSummaries []RangeSummaryDTO `json:"rangeSummaries"`
	StatusChanges  []StatusChangeDTO `json:"statusChanges"`
	GeneratedOn    int64             `json:"generatedOn"`
}

// RangeSummaryDTO представляет статистику одного окна
type RangeSummaryDTO struct {
	Range          string  `json:"range"`
	NumAttempts    int     `json:"numAttempts"`
	NumSuccesses   int     `json:"numSuccesses"`
	NumFailures    int     `json:"numFailures"`
	NumOutages     int     `json:"numOutages"`
	SuccessPercent int     `json:"successPercent"`
	FailureMinutes float64 `json:"failureMinutes"`
}

// StatusChangeDTO представляет смену статуса
type StatusChangeDTO struct {
	Status          string  `json:"status"`
	FromTimestamp   int64   `json:"fromTimestamp"`
	ToTimestamp     int64   `json:"toTimestamp"`
	DurationMinutes float64 `json:"durationMinutes"`
	DetailLocation  string  `json:"detailLocation,omitempty"`
}

// HistoryDTO представляет содержимое history/{range}.json
type HistoryDTO struct {
	ServiceName string               `json:"serviceName"`
	Environment string               `json:"environment"`
	Range       string               `json:"range"`
	Points      []entity.MetricPoint `json:"points"`
	GeneratedOn int64                `json:"generatedOn"`
}

// FromReport конвертирует Domain Entity в DTO сводки
func FromReport(report *entity.Report) ReportSummaryDTO {
	summaries := report.RangeSummaries()
	rangeDTOs := make([]RangeSummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		rangeDTOs = append(rangeDTOs, RangeSummaryDTO{
			Range:          summary.Range.String(),
			NumAttempts:    summary.NumAttempts,
			NumSuccesses:   summary.NumSuccesses,
			NumFailures:    summary.NumFailures,
			NumOutages:     summary.NumOutages,
			SuccessPercent: summary.SuccessPercent,
			FailureMinutes: summary.FailureMinutes,
		})
	}

	changes := report.StatusChanges()
	changeDTOs := make([]StatusChangeDTO, 0, len(changes))
	for _, change := range changes {
		changeDTOs = append(changeDTOs, StatusChangeDTO{
			Status:          change.Status.String(),
			FromTimestamp:   change.FromTimestamp,
			ToTimestamp:     change.ToTimestamp,
			DurationMinutes: change.DurationMinutes,
			DetailLocation:  change.DetailLocation,
		})
	}

	return ReportSummaryDTO{
		ReportID:       report.ID(),
		ServiceName:    report.ServiceName(),
		Environment:    report.Environment(),
		CurrentStatus:  report.CurrentStatus().String(),
		RangeSummaries: rangeDTOs,
		StatusChanges:  changeDTOs,
		GeneratedOn:    report.GeneratedOn().Unix(),
	}
}

// FromReportHistory конвертирует точки окна в DTO истории
func FromReportHistory(report *entity.Report, spec valueobject.TimeRangeSpec) HistoryDTO {
	return HistoryDTO{
		ServiceName: report.ServiceName(),
		Environment: report.Environment(),
		Range:       spec.String(),
		Points:      report.History(spec),
		GeneratedOn: report.GeneratedOn().Unix(),
	}
}

// ServicesListDTO представляет содержимое services.json
type ServicesListDTO struct {
	Environment string            `json:"environment"`
	Services    []ServiceEntryDTO `json:"services"`
	GeneratedOn int64             `json:"generatedOn"`
}

// ServiceEntryDTO представляет один сервис в списке
type ServiceEntryDTO struct {
	ServiceName string `json:"serviceName"`
}

// FromServicesList конвертирует список сервисов в DTO
func FromServicesList(list entity.ServicesList) ServicesListDTO {
	entries := make([]ServiceEntryDTO, 0, len(list.Services))
	for _, name := range list.Services {
		entries = append(entries, ServiceEntryDTO{ServiceName: name})
	}
	return ServicesListDTO{
		Environment: list.Environment,
		Services:    entries,
		GeneratedOn: list.GeneratedOn.Unix(),
	}
}

// ReportPublishedEvent отправляется в брокер после записи отчета
type ReportPublishedEvent struct {
	EventID       string    `json:"event_id"`
	ReportID      string    `json:"report_id"`
	Environment   string    `json:"environment"`
	ServiceName   string    `json:"service_name"`
	CurrentStatus string    `json:"current_status"`
	SummaryPath   string    `json:"summary_path"`
	GeneratedOn   time.Time `json:"generated_on"`
}

// MessageID используется брокером для дедупликации повторных публикаций
func (e ReportPublishedEvent) MessageID() string {
	return e.EventID
}

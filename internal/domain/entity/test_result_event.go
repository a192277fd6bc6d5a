package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
)

var serviceNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// TestResultEvent представляет входящее уведомление о прогоне теста
type TestResultEvent struct {
	Timestamp         int64    `json:"timestamp"`
	Succeeded         *bool    `json:"succeeded"`
	Service           string   `json:"service"`
	Groups            []string `json:"groups,omitempty"`
	TestExecutionSecs float64  `json:"testExecutionSecs"`
}

// Validate проверяет обязательные поля события
func (e TestResultEvent) Validate() error {
	service := strings.TrimSpace(e.Service)
	if service == "" {
		return fmt.Errorf("%w: service is required", errs.ErrMalformedEvent)
	}
	if !serviceNameRegex.MatchString(service) {
		return fmt.Errorf("%w: invalid service name %q", errs.ErrMalformedEvent, e.Service)
	}
	if e.Succeeded == nil {
		return fmt.Errorf("%w: succeeded is required", errs.ErrMalformedEvent)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp must be positive", errs.ErrMalformedEvent)
	}
	if e.TestExecutionSecs < 0 {
		return fmt.Errorf("%w: testExecutionSecs must not be negative", errs.ErrMalformedEvent)
	}
	return nil
}

// ServiceName возвращает нормализованное имя сервиса
func (e TestResultEvent) ServiceName() string {
	return strings.TrimSpace(e.Service)
}

// Point переводит событие в точку метрики. Вызывать только после Validate.
func (e TestResultEvent) Point() MetricPoint {
	succeeded := e.Succeeded != nil && *e.Succeeded
	return MetricPoint{
		Timestamp:            e.Timestamp,
		Succeeded:            succeeded,
		TestExecutionSeconds: e.TestExecutionSecs,
	}
}

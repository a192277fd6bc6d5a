package postgres

import (
	"database/sql"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
)

// TestResultRow представляет строку таблицы test_results
type TestResultRow struct {
	ID                int64
	ExecutedAt        time.Time
	Succeeded         bool
	TestExecutionSecs sql.NullFloat64
}

// ToPoint конвертирует строку БД в точку ряда
func (r *TestResultRow) ToPoint() entity.MetricPoint {
	point := entity.MetricPoint{
		Timestamp: r.ExecutedAt.Unix(),
		Succeeded: r.Succeeded,
	}
	if r.TestExecutionSecs.Valid {
		point.TestExecutionSeconds = r.TestExecutionSecs.Float64
	}
	return point
}

// ScanTestResultRow сканирует строку БД в TestResultRow
func ScanTestResultRow(row interface {
	Scan(dest ...interface{}) error
}) (*TestResultRow, error) {
	var model TestResultRow

	err := row.Scan(
		&model.ID,
		&model.ExecutedAt,
		&model.Succeeded,
		&model.TestExecutionSecs,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

package port

import (
	"context"
	"time"
)

// ReportIndexEntry представляет последнюю сводку сервиса в индексе отчетов.
type ReportIndexEntry struct {
	Environment    string
	ServiceName    string
	ReportID       string
	CurrentStatus  string
	SummaryPath    string
	SuccessPercent map[string]int
	GeneratedOn    time.Time
}

// ReportIndexQuery определяет параметры выборки индекса.
type ReportIndexQuery struct {
	Environment string
	Limit       int
	Cursor      string
}

// ReportIndexPage содержит результат выборки и курсор следующей страницы.
type ReportIndexPage struct {
	Items      []ReportIndexEntry
	NextCursor string
}

// ReportIndexRepository хранит по одной записи на сервис и окружение.
type ReportIndexRepository interface {
	Put(ctx context.Context, entry ReportIndexEntry) error
	ListByEnvironment(ctx context.Context, query ReportIndexQuery) (ReportIndexPage, error)
}

package port

import (
	"context"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// PointPaginator отдает точки метрик постранично.
// Порядок точек определяется хранилищем, потребитель сортирует сам.
type PointPaginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context) ([]entity.MetricPoint, error)
}

// MetricSource определяет интерфейс хранилища результатов тестов (Port)
// Реализации: CloudWatch, PostgreSQL
type MetricSource interface {
	// FetchPoints возвращает новый paginator по точкам сервиса в окне.
	// Запросы выполняются только при вызове NextPage.
	FetchPoints(service string, window valueobject.TimeRange) PointPaginator

	// ListServices возвращает имена сервисов, для которых есть метрики
	ListServices(ctx context.Context) ([]string, error)
}

// DrainPoints читает все страницы paginator'а
func DrainPoints(ctx context.Context, paginator PointPaginator) ([]entity.MetricPoint, error) {
	points := make([]entity.MetricPoint, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		points = append(points, page...)
	}
	return points, nil
}

package service

import (
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// HistoryPartitioner раскладывает точки по временным окнам
type HistoryPartitioner struct{}

// NewHistoryPartitioner создает новый partitioner
func NewHistoryPartitioner() *HistoryPartitioner {
	return &HistoryPartitioner{}
}

// Partition возвращает для каждого окна точки, попавшие в него, в исходном порядке.
// Точка попадает во все окна, которые ее содержат. Ключ есть для каждого окна, даже пустого.
func (p *HistoryPartitioner) Partition(
	points []entity.MetricPoint,
	specs []valueobject.TimeRangeSpec,
	now time.Time,
) map[valueobject.TimeRangeSpec][]entity.MetricPoint {
	partitions := make(map[valueobject.TimeRangeSpec][]entity.MetricPoint, len(specs))

	for _, spec := range specs {
		window := spec.Resolve(now)
		bucket := make([]entity.MetricPoint, 0)
		for _, point := range points {
			if window.ContainsUnix(point.Timestamp) {
				bucket = append(bucket, point)
			}
		}
		partitions[spec] = bucket
	}

	return partitions
}

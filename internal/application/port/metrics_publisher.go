package port

import (
	"context"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
)

// MetricsPublisher defines the interface for exporting report figures to an observability platform.
type MetricsPublisher interface {
	// PublishReport emits one datum per range summary figure.
	PublishReport(ctx context.Context, report *entity.Report) error

	// Flush forces immediate publication of any buffered metrics.
	Flush(ctx context.Context) error
}

package usecase

import (
	"fmt"
	"path"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

// ReportPublishedSubject is the broker subject announcing a freshly written summary.
const ReportPublishedSubject = "sla.report.published"

func SummaryPath(environment, service string) string {
	return path.Join(environment, service, "summary.json")
}

func HistoryPath(environment, service string, spec valueobject.TimeRangeSpec) string {
	return path.Join(environment, service, "history", spec.String()+".json")
}

func ServicesListPath(environment string) string {
	return path.Join(environment, "services.json")
}

func ReportCacheKey(environment, service string) string {
	return fmt.Sprintf("report:summary:%s:%s", environment, service)
}

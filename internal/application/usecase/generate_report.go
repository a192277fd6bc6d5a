package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/service"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
	"github.com/google/uuid"
)

type GenerateReportConfig struct {
	Environment string
	Ranges      []valueobject.TimeRangeSpec
}

// ReportSinks are optional destinations fed after the report is durable.
// A nil sink is skipped.
type ReportSinks struct {
	Index   port.ReportIndexRepository
	Cache   port.Cache
	Events  port.EventPublisher
	Metrics port.MetricsPublisher
}

type GenerateReportResult struct {
	Report       *entity.Report
	SummaryPath  string
	HistoryPaths []string
}

// GenerateReportUseCase строит и публикует отчет по одному событию
type GenerateReportUseCase struct {
	source      port.MetricSource
	publisher   port.ReportPublisher
	sinks       ReportSinks
	summarizer  *service.RangeSummarizer
	detector    *service.StatusChangeDetector
	partitioner *service.HistoryPartitioner
	assembler   *service.ReportAssembler
	config      GenerateReportConfig
	now         func() time.Time
	logger      *logger.Logger
}

func NewGenerateReportUseCase(
	source port.MetricSource,
	publisher port.ReportPublisher,
	sinks ReportSinks,
	config GenerateReportConfig,
	log *logger.Logger,
) *GenerateReportUseCase {
	return &GenerateReportUseCase{
		source:      source,
		publisher:   publisher,
		sinks:       sinks,
		summarizer:  service.NewRangeSummarizer(),
		detector:    service.NewStatusChangeDetector(),
		partitioner: service.NewHistoryPartitioner(),
		assembler:   service.NewReportAssembler(time.Now),
		config:      config,
		now:         time.Now,
		logger:      log,
	}
}

func (uc *GenerateReportUseCase) Execute(ctx context.Context, event entity.TestResultEvent) (*GenerateReportResult, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if len(uc.config.Ranges) == 0 {
		return nil, fmt.Errorf("no report ranges configured")
	}

	serviceName := event.ServiceName()
	now := uc.now()
	window := valueobject.Widest(uc.config.Ranges).Resolve(now)

	fetched, err := port.DrainPoints(ctx, uc.source.FetchPoints(serviceName, window))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch points for %s: %w", errs.ErrSourceUnavailable, serviceName, err)
	}

	points := entity.SortChronologically(uc.assembler.InjectCurrent(fetched, event.Point()))

	summaries := make([]entity.RangeSummary, 0, len(uc.config.Ranges))
	for _, spec := range uc.config.Ranges {
		summaries = append(summaries, uc.summarizer.Summarize(points, spec, now))
	}

	changes, err := uc.detector.Detect(points)
	if err != nil {
		return nil, err
	}

	report := uc.assembler.Assemble(service.AssembleInput{
		Environment:    uc.config.Environment,
		Event:          event,
		RangeSummaries: summaries,
		StatusChanges:  changes,
		History:        uc.partitioner.Partition(points, uc.config.Ranges, now),
	})

	result, err := uc.publish(ctx, report)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Report published",
		"service", serviceName,
		"status", report.CurrentStatus().String(),
		"points", len(points),
		"status_changes", len(changes),
		"path", result.SummaryPath,
	)

	uc.feedSinks(ctx, report, result.SummaryPath)

	return result, nil
}

// publish пишет истории до сводки, чтобы сводка не ссылалась на устаревшие окна
func (uc *GenerateReportUseCase) publish(ctx context.Context, report *entity.Report) (*GenerateReportResult, error) {
	result := &GenerateReportResult{
		Report:       report,
		SummaryPath:  SummaryPath(report.Environment(), report.ServiceName()),
		HistoryPaths: make([]string, 0, len(uc.config.Ranges)),
	}

	for _, spec := range uc.config.Ranges {
		historyPath := HistoryPath(report.Environment(), report.ServiceName(), spec)
		if err := uc.writeJSON(ctx, historyPath, dto.FromReportHistory(report, spec)); err != nil {
			return nil, err
		}
		result.HistoryPaths = append(result.HistoryPaths, historyPath)
	}

	if err := uc.writeJSON(ctx, result.SummaryPath, dto.FromReport(report)); err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *GenerateReportUseCase) writeJSON(ctx context.Context, objectPath string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", objectPath, err)
	}

	if err := uc.publisher.Write(ctx, objectPath, body); err != nil {
		uc.logger.Error("Failed to write report object", err, "path", objectPath)
		return fmt.Errorf("%w: %s: %w", errs.ErrPublishFailure, objectPath, err)
	}
	return nil
}

func (uc *GenerateReportUseCase) feedSinks(ctx context.Context, report *entity.Report, summaryPath string) {
	summary := dto.FromReport(report)

	if uc.sinks.Index != nil {
		percents := make(map[string]int, len(summary.RangeSummaries))
		for _, rangeSummary := range summary.RangeSummaries {
			percents[rangeSummary.Range] = rangeSummary.SuccessPercent
		}
		err := uc.sinks.Index.Put(ctx, port.ReportIndexEntry{
			Environment:    report.Environment(),
			ServiceName:    report.ServiceName(),
			ReportID:       report.ID(),
			CurrentStatus:  summary.CurrentStatus,
			SummaryPath:    summaryPath,
			SuccessPercent: percents,
			GeneratedOn:    report.GeneratedOn(),
		})
		if err != nil {
			uc.logger.Warn("Failed to update report index", "service", report.ServiceName(), "error", err.Error())
		}
	}

	if uc.sinks.Cache != nil {
		if err := uc.sinks.Cache.Set(ctx, ReportCacheKey(report.Environment(), report.ServiceName()), summary); err != nil {
			uc.logger.Warn("Failed to cache report summary", "service", report.ServiceName(), "error", err.Error())
		}
	}

	if uc.sinks.Events != nil {
		event := dto.ReportPublishedEvent{
			EventID:       uuid.New().String(),
			ReportID:      report.ID(),
			Environment:   report.Environment(),
			ServiceName:   report.ServiceName(),
			CurrentStatus: summary.CurrentStatus,
			SummaryPath:   summaryPath,
			GeneratedOn:   report.GeneratedOn(),
		}
		if err := uc.sinks.Events.PublishEvent(ctx, ReportPublishedSubject, event); err != nil {
			uc.logger.Warn("Failed to announce report", "service", report.ServiceName(), "error", err.Error())
		}
	}

	if uc.sinks.Metrics != nil {
		if err := uc.sinks.Metrics.PublishReport(ctx, report); err != nil {
			uc.logger.Warn("Failed to publish report metrics", "service", report.ServiceName(), "error", err.Error())
		}
	}
}

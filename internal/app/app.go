// Package app собирает зависимости движка отчетов из конфигурации.
// Используется и Lambda, и CLI, и HTTP сервером.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
	"github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/awsclient"
	rediscache "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/cache/redis"
	"github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/messaging/fanout"
	natsmessaging "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/messaging/nats"
	cwsource "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/metricsource/cloudwatch"
	pgsource "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/metricsource/postgres"
	cwobservability "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/observability/cloudwatch"
	"github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/persistence/dynamodb"
	"github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/storage/filesystem"
	s3storage "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/storage/s3"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/queue"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/config"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// App держит собранные use cases и адаптеры
type App struct {
	Config *config.Config
	Logger *logger.Logger

	Source  port.MetricSource
	Storage port.ReportPublisher

	GenerateReport  *usecase.GenerateReportUseCase
	RefreshServices *usecase.RefreshServicesListUseCase
	ProcessBatch    *usecase.ProcessBatchUseCase
	GetSummary      *usecase.GetReportSummaryUseCase
	// ListReports is nil when the DynamoDB report index is disabled
	ListReports *usecase.ListReportsUseCase
	Queue       *queue.Handler

	flushers []queue.Flusher
	closers  []func() error
	events   []port.EventPublisher
}

// Option настраивает App до сборки use cases
type Option func(*App)

// WithEventPublisher добавляет приемник событий о публикации отчетов.
// Закрытие приемника остается на вызывающей стороне.
func WithEventPublisher(publisher port.EventPublisher) Option {
	return func(a *App) {
		a.events = append(a.events, publisher)
	}
}

// New создает приложение. При ошибке уже открытые соединения закрываются.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	ranges, err := valueobject.ParseTimeRangeSpecs(cfg.Report.Ranges)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report ranges: %w", err)
	}

	a := &App{Config: cfg, Logger: log}
	for _, opt := range opts {
		opt(a)
	}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		loaded, err := awsclient.Load(ctx, awsclient.Config{
			Region:          cfg.AWS.Region,
			Endpoint:        cfg.AWS.Endpoint,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
		}
		awsCfg = &loaded
		return loaded, nil
	}

	if cfg.CloudWatch.LogsEnabled {
		if err := a.initLogs(ctx, loadAWS); err != nil {
			return nil, err
		}
	}

	if err := a.initSource(ctx, loadAWS); err != nil {
		return nil, err
	}
	if err := a.initStorage(loadAWS); err != nil {
		return nil, err
	}

	sinks, err := a.initSinks(ctx, loadAWS)
	if err != nil {
		return nil, err
	}

	a.GenerateReport = usecase.NewGenerateReportUseCase(a.Source, a.Storage, sinks, usecase.GenerateReportConfig{
		Environment: cfg.Environment,
		Ranges:      ranges,
	}, log)
	a.RefreshServices = usecase.NewRefreshServicesListUseCase(a.Source, a.Storage, usecase.RefreshServicesListConfig{
		Environment: cfg.Environment,
		TTL:         cfg.Report.ServicesListTTL,
	}, log)
	a.ProcessBatch = usecase.NewProcessBatchUseCase(a.GenerateReport, a.RefreshServices, log)
	a.GetSummary = usecase.NewGetReportSummaryUseCase(a.Storage, sinks.Cache, cfg.Environment, log)
	if sinks.Index != nil {
		a.ListReports = usecase.NewListReportsUseCase(sinks.Index, usecase.ListReportsConfig{
			Environment: cfg.Environment,
		}, log)
	}
	a.Queue = queue.NewHandler(a.ProcessBatch, log, a.flushers...)

	log.Info("Report engine initialized",
		"environment", cfg.Environment,
		"metric_source", cfg.Metrics.Source,
		"report_storage", cfg.Report.Storage,
		"ranges", cfg.Report.Ranges,
	)

	ok = true
	return a, nil
}

func (a *App) initLogs(ctx context.Context, loadAWS func() (aws.Config, error)) error {
	awsCfg, err := loadAWS()
	if err != nil {
		return err
	}
	publisher, err := cwobservability.NewLogsPublisher(ctx, awsCfg, cwobservability.LogsPublisherConfig{
		LogGroupName:  a.Config.CloudWatch.LogGroup,
		LogStreamName: a.Config.CloudWatch.LogStream,
		BufferSize:    50,
		AutoCreate:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create cloudwatch logs publisher: %w", err)
	}
	a.Logger.SetLogPublisher(publisher)
	a.flushers = append(a.flushers, publisher)
	return nil
}

func (a *App) initSource(ctx context.Context, loadAWS func() (aws.Config, error)) error {
	switch a.Config.Metrics.Source {
	case config.MetricSourcePostgres:
		db, err := pgsource.Open(ctx, a.Config.Postgres.DSN)
		if err != nil {
			return err
		}
		a.addCloser(db.Close)
		a.Source = pgsource.NewMetricSource(db, a.Config.Postgres.PageSize)
		a.Logger.Info("Using PostgreSQL metric source")
		return nil
	default:
		awsCfg, err := loadAWS()
		if err != nil {
			return err
		}
		source, err := cwsource.NewMetricSource(awsCfg, cwsource.Config{
			Namespace:         a.Config.Metrics.Namespace,
			Region:            a.Config.AWS.Region,
			PeriodSeconds:     a.Config.Metrics.Resolution,
			RequestsPerSecond: a.Config.Metrics.RequestsPerSecond,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create cloudwatch metric source: %w", err)
		}
		a.Source = source
		a.Logger.Info("Using CloudWatch metric source", "namespace", a.Config.Metrics.Namespace)
		return nil
	}
}

func (a *App) initStorage(loadAWS func() (aws.Config, error)) error {
	switch a.Config.Report.Storage {
	case config.ReportStorageFilesystem:
		storage, err := filesystem.NewReportStorage(a.Config.Report.Dir)
		if err != nil {
			return fmt.Errorf("failed to create filesystem report storage: %w", err)
		}
		a.Storage = storage
		a.Logger.Info("Publishing reports to filesystem", "dir", a.Config.Report.Dir)
		return nil
	default:
		awsCfg, err := loadAWS()
		if err != nil {
			return err
		}
		storage, err := s3storage.NewReportStorage(awsCfg, s3storage.Config{
			Bucket:       a.Config.S3.Bucket,
			KeyPrefix:    a.Config.S3.KeyPrefix,
			UsePathStyle: a.Config.S3.UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to create s3 report storage: %w", err)
		}
		a.Storage = storage
		a.Logger.Info("Publishing reports to S3", "bucket", a.Config.S3.Bucket)
		return nil
	}
}

// initSinks подключает только включенные приемники, выключенные остаются nil
func (a *App) initSinks(ctx context.Context, loadAWS func() (aws.Config, error)) (usecase.ReportSinks, error) {
	var sinks usecase.ReportSinks
	cfg := a.Config

	if cfg.Dynamo.Enabled {
		awsCfg, err := loadAWS()
		if err != nil {
			return sinks, err
		}
		index, err := dynamodb.NewReportIndexRepository(awsCfg, dynamodb.Config{
			TableName:   cfg.Dynamo.TableName,
			StrongReads: cfg.Dynamo.StrongReads,
		})
		if err != nil {
			return sinks, fmt.Errorf("failed to create report index: %w", err)
		}
		sinks.Index = index
	}

	if cfg.Redis.Enabled {
		cache, err := rediscache.NewRedisCache(ctx, rediscache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return sinks, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.addCloser(cache.Close)
		sinks.Cache = cache
	}

	if cfg.NATS.Enabled {
		publisher, err := natsmessaging.NewNATSPublisher(cfg.NATS.URL, a.Logger)
		if err != nil {
			return sinks, fmt.Errorf("failed to connect to nats: %w", err)
		}
		a.addCloser(publisher.Close)
		a.flushers = append(a.flushers, publisher)
		a.events = append(a.events, publisher)
	}

	switch len(a.events) {
	case 0:
	case 1:
		sinks.Events = a.events[0]
	default:
		sinks.Events = fanout.NewPublisher(a.events...)
	}

	if cfg.CloudWatch.ReportMetricsEnabled {
		awsCfg, err := loadAWS()
		if err != nil {
			return sinks, err
		}
		publisher, err := cwobservability.NewMetricsPublisher(awsCfg, cwobservability.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.ReportMetricsNamespace,
			DefaultDimensions: map[string]string{"Region": cfg.AWS.Region},
		})
		if err != nil {
			return sinks, fmt.Errorf("failed to create report metrics publisher: %w", err)
		}
		a.flushers = append(a.flushers, publisher)
		sinks.Metrics = publisher
	}

	return sinks, nil
}

func (a *App) addCloser(closer func() error) {
	a.closers = append(a.closers, closer)
}

// Flush сбрасывает буферизованные приемники, используется CLI после разовых команд
func (a *App) Flush(ctx context.Context) {
	for _, f := range a.flushers {
		if err := f.Flush(ctx); err != nil {
			a.Logger.Warn("Failed to flush sink", "error", err.Error())
		}
	}
}

// Close освобождает соединения в обратном порядке создания
func (a *App) Close() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Flush(flushCtx)

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Failed to close resource", "error", err.Error())
		}
	}
	a.closers = nil
}

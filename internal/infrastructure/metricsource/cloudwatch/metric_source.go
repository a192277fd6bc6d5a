package cloudwatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"golang.org/x/time/rate"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const (
	failureMetricName       = "Failure"
	executionTimeMetricName = "TestExecutionTime"

	dimensionRegion  = "Region"
	dimensionService = "Service"

	defaultPeriodSeconds = 60
	defaultMaxDatapoints = 10000
)

// API is the subset of the CloudWatch client used by the metric source.
type API interface {
	cloudwatch.GetMetricDataAPIClient
	cloudwatch.ListMetricsAPIClient
}

// Config describes where test results are published.
type Config struct {
	Namespace         string
	Region            string  // value of the Region dimension
	PeriodSeconds     int32   // aggregation period, one point per period
	RequestsPerSecond float64 // CloudWatch API pacing, <= 0 disables it
	MaxDatapoints     int32   // datapoints per GetMetricData page
}

// MetricSource reads test results from CloudWatch metrics.
// A run publishes Failure (0 or 1) and TestExecutionTime under the Region and Service dimensions.
type MetricSource struct {
	client  API
	config  Config
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewMetricSource creates a CloudWatch backed metric source.
func NewMetricSource(awsCfg aws.Config, cfg Config, log *logger.Logger) (*MetricSource, error) {
	return newMetricSource(cloudwatch.NewFromConfig(awsCfg), cfg, log)
}

func newMetricSource(client API, cfg Config, log *logger.Logger) (*MetricSource, error) {
	if strings.TrimSpace(cfg.Namespace) == "" {
		return nil, fmt.Errorf("metric namespace is required")
	}
	if cfg.PeriodSeconds <= 0 {
		cfg.PeriodSeconds = defaultPeriodSeconds
	}
	if cfg.MaxDatapoints <= 0 {
		cfg.MaxDatapoints = defaultMaxDatapoints
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &MetricSource{
		client:  client,
		config:  cfg,
		limiter: limiter,
		logger:  log,
	}, nil
}

// FetchPoints returns a lazy paginator over the service's points, newest first.
func (s *MetricSource) FetchPoints(service string, window valueobject.TimeRange) port.PointPaginator {
	input := &cloudwatch.GetMetricDataInput{
		StartTime:         aws.Time(window.Start()),
		EndTime:           aws.Time(window.End()),
		ScanBy:            types.ScanByTimestampDescending,
		MaxDatapoints:     aws.Int32(s.config.MaxDatapoints),
		MetricDataQueries: s.queries(service),
	}

	return &pointPaginator{
		pages:   cloudwatch.NewGetMetricDataPaginator(s.client, input),
		limiter: s.limiter,
		merger:  newSeriesMerger(),
		service: service,
		logger:  s.logger,
	}
}

// ListServices returns every Service dimension value seen on the Failure metric.
func (s *MetricSource) ListServices(ctx context.Context) ([]string, error) {
	paginator := cloudwatch.NewListMetricsPaginator(s.client, &cloudwatch.ListMetricsInput{
		Namespace:  aws.String(s.config.Namespace),
		MetricName: aws.String(failureMetricName),
		Dimensions: []types.DimensionFilter{
			{Name: aws.String(dimensionService)},
		},
	})

	services := make([]string, 0)
	pages := 0
	for paginator.HasMorePages() {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list metrics failed: %w", err)
		}
		pages++

		for _, metric := range output.Metrics {
			for _, dimension := range metric.Dimensions {
				if aws.ToString(dimension.Name) == dimensionService {
					services = append(services, aws.ToString(dimension.Value))
				}
			}
		}
	}

	s.logger.Debug("Listed services from CloudWatch", "pages", pages, "services", len(services))
	return services, nil
}

func (s *MetricSource) queries(service string) []types.MetricDataQuery {
	dimensions := []types.Dimension{
		{Name: aws.String(dimensionService), Value: aws.String(service)},
	}
	if s.config.Region != "" {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(dimensionRegion),
			Value: aws.String(s.config.Region),
		})
	}

	metricStat := func(metricName, stat string) *types.MetricStat {
		return &types.MetricStat{
			Metric: &types.Metric{
				Namespace:  aws.String(s.config.Namespace),
				MetricName: aws.String(metricName),
				Dimensions: dimensions,
			},
			Period: aws.Int32(s.config.PeriodSeconds),
			Stat:   aws.String(stat),
		}
	}

	return []types.MetricDataQuery{
		{
			Id:         aws.String(statusQueryID),
			MetricStat: metricStat(failureMetricName, "Maximum"),
			ReturnData: aws.Bool(true),
		},
		{
			Id:         aws.String(durationQueryID),
			MetricStat: metricStat(executionTimeMetricName, "Average"),
			ReturnData: aws.Bool(true),
		},
	}
}

type pointPaginator struct {
	pages   *cloudwatch.GetMetricDataPaginator
	limiter *rate.Limiter
	merger  *seriesMerger
	service string
	fetched int
	logger  *logger.Logger
}

func (p *pointPaginator) HasMorePages() bool {
	return p.pages.HasMorePages()
}

func (p *pointPaginator) NextPage(ctx context.Context) ([]entity.MetricPoint, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	output, err := p.pages.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("get metric data failed: %w", err)
	}
	p.fetched++

	p.merger.add(output.MetricDataResults)

	var points []entity.MetricPoint
	if p.pages.HasMorePages() {
		points = p.merger.settled()
	} else {
		points = p.merger.drain()
	}

	p.logger.Debug("Fetched metric data page",
		"service", p.service,
		"page", p.fetched,
		"points", len(points),
		"duration", time.Since(started).String(),
	)

	return points, nil
}

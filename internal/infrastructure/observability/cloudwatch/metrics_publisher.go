package cloudwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
)

const (
	// CloudWatch limits
	maxMetricsPerRequest = 1000
	maxRetries           = 3
	initialBackoff       = 100 * time.Millisecond
)

type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsPublisherConfig holds configuration for report metrics publishing.
type MetricsPublisherConfig struct {
	Namespace         string            // CloudWatch namespace (e.g., "SLAMonitor/Reports")
	DefaultDimensions map[string]string // Default dimensions added to all metrics
	BufferSize        int               // Buffer size before auto-flush
}

// MetricsPublisher exports per-range report figures to AWS CloudWatch.
// Data is buffered until BufferSize datums accumulate or Flush is called.
type MetricsPublisher struct {
	client            putMetricDataAPI
	namespace         string
	defaultDimensions map[string]string

	buffer     []types.MetricDatum
	bufferSize int
	mu         sync.Mutex
}

// NewMetricsPublisher creates a new CloudWatch report metrics publisher.
func NewMetricsPublisher(awsCfg aws.Config, cfg MetricsPublisherConfig) (*MetricsPublisher, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}

	return newMetricsPublisher(cloudwatch.NewFromConfig(awsCfg), cfg), nil
}

func newMetricsPublisher(client putMetricDataAPI, cfg MetricsPublisherConfig) *MetricsPublisher {
	return &MetricsPublisher{
		client:            client,
		namespace:         cfg.Namespace,
		defaultDimensions: cfg.DefaultDimensions,
		buffer:            make([]types.MetricDatum, 0, cfg.BufferSize),
		bufferSize:        cfg.BufferSize,
	}
}

// PublishReport buffers the summary figures of every range in the report.
func (p *MetricsPublisher) PublishReport(ctx context.Context, report *entity.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffer = append(p.buffer, p.convertReport(report)...)

	if len(p.buffer) >= p.bufferSize {
		if err := p.flushBufferUnsafe(ctx); err != nil {
			return fmt.Errorf("failed to flush buffer: %w", err)
		}
	}

	return nil
}

// Flush forces immediate publication of all buffered metrics.
func (p *MetricsPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *MetricsPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	// Publish in chunks (CloudWatch limit: 1000 metrics/request)
	for i := 0; i < len(p.buffer); i += maxMetricsPerRequest {
		end := i + maxMetricsPerRequest
		if end > len(p.buffer) {
			end = len(p.buffer)
		}

		if err := p.publishBatchWithRetry(ctx, p.buffer[i:end]); err != nil {
			p.buffer = p.buffer[i:]
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	p.buffer = p.buffer[:0]

	return nil
}

// publishBatchWithRetry publishes a batch of metrics with exponential backoff retry.
func (p *MetricsPublisher) publishBatchWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		})
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// convertReport maps each range summary to SuccessPercent, Outages and FailureMinutes datums.
func (p *MetricsPublisher) convertReport(report *entity.Report) []types.MetricDatum {
	timestamp := report.GeneratedOn()
	summaries := report.RangeSummaries()
	data := make([]types.MetricDatum, 0, len(summaries)*3)

	for _, summary := range summaries {
		dimensions := make([]types.Dimension, 0, len(p.defaultDimensions)+3)
		for key, value := range p.defaultDimensions {
			dimensions = append(dimensions, types.Dimension{
				Name:  aws.String(key),
				Value: aws.String(value),
			})
		}
		dimensions = append(dimensions,
			types.Dimension{Name: aws.String("Environment"), Value: aws.String(report.Environment())},
			types.Dimension{Name: aws.String("Service"), Value: aws.String(report.ServiceName())},
			types.Dimension{Name: aws.String("Range"), Value: aws.String(summary.Range.String())},
		)

		data = append(data,
			types.MetricDatum{
				MetricName: aws.String("SuccessPercent"),
				Value:      aws.Float64(float64(summary.SuccessPercent)),
				Unit:       types.StandardUnitPercent,
				Timestamp:  aws.Time(timestamp),
				Dimensions: dimensions,
			},
			types.MetricDatum{
				MetricName: aws.String("Outages"),
				Value:      aws.Float64(float64(summary.NumOutages)),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(timestamp),
				Dimensions: dimensions,
			},
			types.MetricDatum{
				MetricName: aws.String("FailureMinutes"),
				Value:      aws.Float64(summary.FailureMinutes),
				Unit:       types.StandardUnitNone,
				Timestamp:  aws.Time(timestamp),
				Dimensions: dimensions,
			},
		)
	}

	return data
}

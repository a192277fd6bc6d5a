package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
	"github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/storage/filesystem"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/handler"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/queue"
	"github.com/billtrust/sla-monitor-report-lambda/internal/metrics"
	"github.com/billtrust/sla-monitor-report-lambda/internal/scheduler"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/config"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const testToken = "test-token"

type memoryPaginator struct {
	points []entity.MetricPoint
	done   bool
}

func (p *memoryPaginator) HasMorePages() bool {
	return !p.done
}

func (p *memoryPaginator) NextPage(context.Context) ([]entity.MetricPoint, error) {
	p.done = true
	return p.points, nil
}

type memoryMetricSource struct {
	mu     sync.RWMutex
	points map[string][]entity.MetricPoint
}

func (s *memoryMetricSource) FetchPoints(service string, window valueobject.TimeRange) port.PointPaginator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	selected := make([]entity.MetricPoint, 0)
	for _, point := range s.points[service] {
		if window.ContainsUnix(point.Timestamp) {
			selected = append(selected, point)
		}
	}
	return &memoryPaginator{points: selected}
}

func (s *memoryMetricSource) ListServices(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	services := make([]string, 0, len(s.points))
	for name := range s.points {
		services = append(services, name)
	}
	return services, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.New("error")
	now := time.Now().UTC()
	source := &memoryMetricSource{points: map[string][]entity.MetricPoint{
		"billing": {
			{Timestamp: now.Add(-3 * time.Hour).Unix(), Succeeded: true, TestExecutionSeconds: 1.2},
			{Timestamp: now.Add(-2 * time.Hour).Unix(), Succeeded: false, TestExecutionSeconds: 4.0},
			{Timestamp: now.Add(-1 * time.Hour).Unix(), Succeeded: true, TestExecutionSeconds: 1.1},
		},
		"payments": {
			{Timestamp: now.Add(-1 * time.Hour).Unix(), Succeeded: true, TestExecutionSeconds: 0.5},
		},
	}}

	storage, err := filesystem.NewReportStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create report storage: %v", err)
	}

	ranges, err := valueobject.ParseTimeRangeSpecs([]string{"1d", "7d"})
	if err != nil {
		t.Fatalf("failed to parse ranges: %v", err)
	}

	generateUC := usecase.NewGenerateReportUseCase(source, storage, usecase.ReportSinks{}, usecase.GenerateReportConfig{
		Environment: "test",
		Ranges:      ranges,
	}, log)
	refreshUC := usecase.NewRefreshServicesListUseCase(source, storage, usecase.RefreshServicesListConfig{
		Environment: "test",
		TTL:         time.Hour,
	}, log)
	processUC := usecase.NewProcessBatchUseCase(generateUC, refreshUC, log)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	runner := scheduler.NewRunner(refreshUC, log, time.Minute)

	router := NewRouter(
		handler.NewReportAPIHandler(usecase.NewGetReportSummaryUseCase(storage, nil, "test", log), nil, log),
		handler.NewEventsAPIHandler(queue.NewHandler(processUC, log), m, 1<<20, log),
		handler.NewServicesAPIHandler(runner, m, log),
		nil,
		registry,
		m,
		runner.Ready,
		config.SecurityConfig{
			AuthEnabled:    true,
			AuthToken:      testToken,
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		log,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url string, body []byte, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestE2EHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/readyz", nil, "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected readyz 503 before the first refresh, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, server.URL+"/api/v1/services/refresh?force=true", nil, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected refresh 200, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/readyz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected readyz 200 after refresh, got %d", resp.StatusCode)
	}
}

func TestE2EAuthRequired(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/reports/billing", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/v1/reports/billing", nil, "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestE2EEventPublishesReport(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/reports/billing", nil, testToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any event, got %d", resp.StatusCode)
	}

	event, err := queue.NewSampleEvent("billing", false, 3.5, time.Now())
	if err != nil {
		t.Fatalf("NewSampleEvent() error = %v", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	resp = doRequest(t, http.MethodPost, server.URL+"/api/v1/events", payload, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected events 200, got %d", resp.StatusCode)
	}
	var batch events.SQSEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if len(batch.BatchItemFailures) != 0 {
		t.Fatalf("expected no failures, got %+v", batch.BatchItemFailures)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/v1/reports/billing", nil, testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected report 200, got %d", resp.StatusCode)
	}
	var summary dto.ReportSummaryDTO
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.ServiceName != "billing" || summary.Environment != "test" {
		t.Errorf("unexpected summary identity %+v", summary)
	}
	if summary.CurrentStatus != valueobject.StatusFailure.String() {
		t.Errorf("expected failure status, got %s", summary.CurrentStatus)
	}
	if len(summary.RangeSummaries) != 2 || summary.RangeSummaries[0].NumAttempts != 4 {
		t.Errorf("unexpected range summaries %+v", summary.RangeSummaries)
	}
}

func TestE2EMalformedEventIsAcknowledged(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/events", []byte(`{"service":"billing"}`), testToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var batch events.SQSEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if len(batch.BatchItemFailures) != 0 {
		t.Fatalf("malformed event must not be retried, got %+v", batch.BatchItemFailures)
	}
}

func TestE2EMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	_ = doRequest(t, http.MethodGet, server.URL+"/api/v1/reports/billing", nil, "")

	resp := doRequest(t, http.MethodGet, server.URL+"/metrics", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	for _, want := range []string{"sla_report_requests_total", "sla_report_auth_failures_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

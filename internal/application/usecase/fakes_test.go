package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

type fakePaginator struct {
	pages [][]entity.MetricPoint
	err   error
	next  int
}

func (p *fakePaginator) HasMorePages() bool {
	return p.next < len(p.pages) || (p.err != nil && p.next == len(p.pages))
}

func (p *fakePaginator) NextPage(context.Context) ([]entity.MetricPoint, error) {
	if p.next == len(p.pages) && p.err != nil {
		p.next++
		return nil, p.err
	}
	page := p.pages[p.next]
	p.next++
	return page, nil
}

type fakeMetricSource struct {
	mu         sync.Mutex
	pages      map[string][][]entity.MetricPoint
	fetchErr   map[string]error
	services   []string
	listErr    error
	fetchCalls int
	lastWindow valueobject.TimeRange
}

func (s *fakeMetricSource) FetchPoints(service string, window valueobject.TimeRange) port.PointPaginator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	s.lastWindow = window
	return &fakePaginator{pages: s.pages[service], err: s.fetchErr[service]}
}

func (s *fakeMetricSource) ListServices(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.services, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	writes   []string
	errAt    map[string]error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
		errAt:    make(map[string]error),
	}
}

func (p *fakePublisher) Write(_ context.Context, path string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errAt[path]; ok {
		return err
	}
	p.objects[path] = append([]byte(nil), body...)
	p.writes = append(p.writes, path)
	return nil
}

func (p *fakePublisher) LastModified(_ context.Context, path string) (*time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	modified, ok := p.modified[path]
	if !ok {
		return nil, nil
	}
	return &modified, nil
}

func (p *fakePublisher) Read(_ context.Context, path string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, ok := p.objects[path]
	if !ok {
		return nil, port.ErrObjectNotFound
	}
	return body, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) Close() error {
	return nil
}

type fakeEventPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *fakeEventPublisher) PublishEvent(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *fakeEventPublisher) Close() error {
	return nil
}

type fakeReportIndex struct {
	mu      sync.Mutex
	entries []port.ReportIndexEntry
	page    port.ReportIndexPage
	query   port.ReportIndexQuery
	err     error
}

func (r *fakeReportIndex) Put(_ context.Context, entry port.ReportIndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *fakeReportIndex) ListByEnvironment(_ context.Context, query port.ReportIndexQuery) (port.ReportIndexPage, error) {
	r.query = query
	if r.err != nil {
		return port.ReportIndexPage{}, r.err
	}
	return r.page, nil
}

type fakeMetricsPublisher struct {
	mu      sync.Mutex
	reports []*entity.Report
}

func (p *fakeMetricsPublisher) PublishReport(_ context.Context, report *entity.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
	return nil
}

func (p *fakeMetricsPublisher) Flush(context.Context) error {
	return nil
}

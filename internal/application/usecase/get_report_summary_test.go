package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

func TestGetReportSummaryUseCase_Execute(t *testing.T) {
	publisher := newFakePublisher()
	publisher.objects["dev/billing/summary.json"] = []byte(`{"serviceName":"billing","environment":"dev","currentStatus":"SUCCESS","rangeSummaries":[],"statusChanges":[],"generatedOn":1}`)
	cache := newFakeCache()

	uc := NewGetReportSummaryUseCase(publisher, cache, "dev", logger.New("error"))

	summary, err := uc.Execute(context.Background(), "billing")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if summary.CurrentStatus != "SUCCESS" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, ok := cache.entries[ReportCacheKey("dev", "billing")]; !ok {
		t.Fatal("expected summary to be cached after read")
	}

	delete(publisher.objects, "dev/billing/summary.json")
	cached, err := uc.Execute(context.Background(), "billing")
	if err != nil {
		t.Fatalf("expected cache hit, got %v", err)
	}
	if cached.ServiceName != "billing" {
		t.Fatalf("unexpected cached summary: %+v", cached)
	}
}

func TestGetReportSummaryUseCase_Errors(t *testing.T) {
	uc := NewGetReportSummaryUseCase(newFakePublisher(), nil, "dev", logger.New("error"))

	if _, err := uc.Execute(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), "../secrets"); err == nil {
		t.Fatal("expected error for path-like service name")
	}
}

func TestListReportsUseCase_ClampsLimit(t *testing.T) {
	index := &fakeReportIndex{page: port.ReportIndexPage{
		Items: []port.ReportIndexEntry{{Environment: "dev", ServiceName: "billing"}},
	}}
	uc := NewListReportsUseCase(index, ListReportsConfig{Environment: "dev", MaxLimit: 50}, logger.New("error"))

	page, err := uc.Execute(context.Background(), ListReportsCommand{Limit: 500, Cursor: " abc "})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if index.query.Limit != 50 || index.query.Cursor != "abc" || index.query.Environment != "dev" {
		t.Fatalf("unexpected query: %+v", index.query)
	}
	if len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	if _, err := NewListReportsUseCase(nil, ListReportsConfig{}, logger.New("error")).Execute(context.Background(), ListReportsCommand{}); err == nil {
		t.Fatal("expected error without index")
	}
}

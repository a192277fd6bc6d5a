package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

func TestListReportsUseCase_Limits(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default limit", limit: 0, wantLimit: 25},
		{name: "explicit limit", limit: 10, wantLimit: 10},
		{name: "clamped limit", limit: 500, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &fakeReportIndex{}
			uc := NewListReportsUseCase(index, ListReportsConfig{Environment: "dev"}, logger.New("error"))

			if _, err := uc.Execute(context.Background(), ListReportsCommand{Limit: tt.limit, Cursor: "  abc  "}); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if index.query.Limit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, index.query.Limit)
			}
			if index.query.Environment != "dev" || index.query.Cursor != "abc" {
				t.Errorf("unexpected query %+v", index.query)
			}
		})
	}
}

func TestListReportsUseCase_ReturnsPage(t *testing.T) {
	index := &fakeReportIndex{
		page: port.ReportIndexPage{
			Items: []port.ReportIndexEntry{
				{
					Environment:    "dev",
					ServiceName:    "billing",
					CurrentStatus:  "success",
					SuccessPercent: map[string]int{"1d": 100},
					GeneratedOn:    time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC),
				},
			},
			NextCursor: "next",
		},
	}
	uc := NewListReportsUseCase(index, ListReportsConfig{Environment: "dev"}, logger.New("error"))

	page, err := uc.Execute(context.Background(), ListReportsCommand{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ServiceName != "billing" || page.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestListReportsUseCase_Errors(t *testing.T) {
	uc := NewListReportsUseCase(nil, ListReportsConfig{Environment: "dev"}, logger.New("error"))
	if _, err := uc.Execute(context.Background(), ListReportsCommand{}); err == nil {
		t.Fatal("expected error without index")
	}

	indexErr := errors.New("ddb down")
	uc = NewListReportsUseCase(&fakeReportIndex{err: indexErr}, ListReportsConfig{Environment: "dev"}, logger.New("error"))
	if _, err := uc.Execute(context.Background(), ListReportsCommand{}); !errors.Is(err, indexErr) {
		t.Fatalf("expected wrapped index error, got %v", err)
	}
}

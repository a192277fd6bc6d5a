package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
)

func TestTestResultEvent_Validate(t *testing.T) {
	yes := true

	tests := []struct {
		name    string
		event   TestResultEvent
		wantErr bool
	}{
		{name: "valid", event: TestResultEvent{Timestamp: 1700000000, Succeeded: &yes, Service: "billing-api"}},
		{name: "missing service", event: TestResultEvent{Timestamp: 1700000000, Succeeded: &yes}, wantErr: true},
		{name: "path in service", event: TestResultEvent{Timestamp: 1700000000, Succeeded: &yes, Service: "../etc"}, wantErr: true},
		{name: "missing succeeded", event: TestResultEvent{Timestamp: 1700000000, Service: "billing-api"}, wantErr: true},
		{name: "missing timestamp", event: TestResultEvent{Succeeded: &yes, Service: "billing-api"}, wantErr: true},
		{name: "negative execution time", event: TestResultEvent{Timestamp: 1700000000, Succeeded: &yes, Service: "billing-api", TestExecutionSecs: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestSortChronologically(t *testing.T) {
	points := []MetricPoint{{Timestamp: 30}, {Timestamp: 10}, {Timestamp: 20}}

	sorted := SortChronologically(points)

	if sorted[0].Timestamp != 10 || sorted[1].Timestamp != 20 || sorted[2].Timestamp != 30 {
		t.Fatalf("unexpected order: %+v", sorted)
	}
	if points[0].Timestamp != 30 {
		t.Fatal("input slice was modified")
	}
}

func TestNewServicesList(t *testing.T) {
	list := NewServicesList("dev", []string{"b", " a ", "", "b"}, time.Time{})
	if len(list.Services) != 2 || list.Services[0] != "a" || list.Services[1] != "b" {
		t.Fatalf("unexpected services: %v", list.Services)
	}
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

func newTestRefreshUseCase(source *fakeMetricSource, publisher *fakePublisher) *RefreshServicesListUseCase {
	uc := NewRefreshServicesListUseCase(source, publisher, RefreshServicesListConfig{
		Environment: "dev",
		TTL:         time.Hour,
	}, logger.New("error"))
	uc.now = func() time.Time { return reportNow }
	return uc
}

func TestRefreshServicesListUseCase_TTL(t *testing.T) {
	tests := []struct {
		name          string
		lastModified  *time.Time
		force         bool
		wantRefreshed bool
	}{
		{name: "never published", lastModified: nil, wantRefreshed: true},
		{name: "fresh snapshot", lastModified: timePtr(reportNow.Add(-3000 * time.Second)), wantRefreshed: false},
		{name: "stale snapshot", lastModified: timePtr(reportNow.Add(-4000 * time.Second)), wantRefreshed: true},
		{name: "forced", lastModified: timePtr(reportNow.Add(-time.Minute)), force: true, wantRefreshed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeMetricSource{services: []string{"billing", "auth", "billing", " "}}
			publisher := newFakePublisher()
			if tt.lastModified != nil {
				publisher.modified["dev/services.json"] = *tt.lastModified
			}

			res, err := newTestRefreshUseCase(source, publisher).Execute(context.Background(), tt.force)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Refreshed != tt.wantRefreshed {
				t.Fatalf("Refreshed = %v, want %v", res.Refreshed, tt.wantRefreshed)
			}

			_, written := publisher.objects["dev/services.json"]
			if written != tt.wantRefreshed {
				t.Fatalf("written = %v, want %v", written, tt.wantRefreshed)
			}
		})
	}
}

func TestRefreshServicesListUseCase_WritesSortedUniqueList(t *testing.T) {
	source := &fakeMetricSource{services: []string{"billing", "auth", "billing"}}
	publisher := newFakePublisher()

	res, err := newTestRefreshUseCase(source, publisher).Execute(context.Background(), false)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.ServiceCount != 2 {
		t.Fatalf("expected 2 services, got %d", res.ServiceCount)
	}

	var list dto.ServicesListDTO
	if err := json.Unmarshal(publisher.objects["dev/services.json"], &list); err != nil {
		t.Fatalf("services list is not valid json: %v", err)
	}
	if len(list.Services) != 2 || list.Services[0].ServiceName != "auth" || list.Services[1].ServiceName != "billing" {
		t.Fatalf("unexpected services: %+v", list.Services)
	}
}

func TestRefreshServicesListUseCase_Errors(t *testing.T) {
	t.Run("listing fails", func(t *testing.T) {
		source := &fakeMetricSource{listErr: errors.New("throttled")}
		_, err := newTestRefreshUseCase(source, newFakePublisher()).Execute(context.Background(), false)
		if !errors.Is(err, errs.ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("write fails", func(t *testing.T) {
		publisher := newFakePublisher()
		publisher.errAt["dev/services.json"] = errors.New("access denied")
		_, err := newTestRefreshUseCase(&fakeMetricSource{services: []string{"a"}}, publisher).Execute(context.Background(), false)
		if !errors.Is(err, errs.ErrPublishFailure) {
			t.Fatalf("expected ErrPublishFailure, got %v", err)
		}
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}

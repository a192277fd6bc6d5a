package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	forced []bool
	err    error
}

func (f *fakeRefresher) Execute(_ context.Context, force bool) (*usecase.RefreshServicesListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.forced = append(f.forced, force)
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RefreshServicesListResult{Refreshed: true, Path: "dev/services.json", ServiceCount: 3}, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunner_RunOnce(t *testing.T) {
	refresher := &fakeRefresher{}
	runner := newRunner(refresher, logger.New("error"), time.Minute)

	if err := runner.Ready(time.Now()); err == nil {
		t.Fatal("expected not ready before first cycle")
	}

	result, err := runner.RunOnce(context.Background(), true)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if !result.Refreshed || refresher.forced[0] != true {
		t.Errorf("unexpected result %+v, forced %v", result, refresher.forced)
	}

	snapshot := runner.Snapshot()
	if snapshot.Runs != 1 || snapshot.LastRefresh == nil || snapshot.LastRefresh.ServiceCount != 3 {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}
	if err := runner.Ready(time.Now()); err != nil {
		t.Errorf("expected ready, got %v", err)
	}
	if err := runner.Ready(time.Now().Add(10 * time.Minute)); err == nil {
		t.Error("expected stale cycle to be not ready")
	}
}

func TestRunner_RunOnceFailure(t *testing.T) {
	runner := newRunner(&fakeRefresher{err: errors.New("list metrics throttled")}, logger.New("error"), time.Minute)

	if _, err := runner.RunOnce(context.Background(), false); err == nil {
		t.Fatal("expected error")
	}

	snapshot := runner.Snapshot()
	if snapshot.LastError == "" || snapshot.LastRunAt.IsZero() {
		t.Errorf("expected failure to be recorded, got %+v", snapshot)
	}
	if err := runner.Ready(time.Now()); err == nil {
		t.Error("expected failed cycle to be not ready")
	}
}

func TestRunner_StartRunsImmediatelyAndStops(t *testing.T) {
	refresher := &fakeRefresher{}
	runner := newRunner(refresher, logger.New("error"), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for refresher.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate refresh")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

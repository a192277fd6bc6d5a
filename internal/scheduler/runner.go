package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/usecase"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const runTimeout = 30 * time.Second

type servicesRefresher interface {
	Execute(ctx context.Context, force bool) (*usecase.RefreshServicesListResult, error)
}

// Snapshot describes the runner state for status endpoints.
type Snapshot struct {
	StartedAt   time.Time                          `json:"startedAt"`
	Interval    time.Duration                      `json:"interval"`
	LastRunAt   time.Time                          `json:"lastRunAt"`
	LastError   string                             `json:"lastError,omitempty"`
	Runs        int                                `json:"runs"`
	LastRefresh *usecase.RefreshServicesListResult `json:"lastRefresh,omitempty"`
}

// Runner periodically refreshes the services list in long-running deployments.
type Runner struct {
	refresher servicesRefresher
	log       *logger.Logger
	interval  time.Duration

	runMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	lastError   string
	runs        int
	lastRefresh *usecase.RefreshServicesListResult
}

func NewRunner(refresher *usecase.RefreshServicesListUseCase, log *logger.Logger, interval time.Duration) *Runner {
	return newRunner(refresher, log, interval)
}

func newRunner(refresher servicesRefresher, log *logger.Logger, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Runner{
		refresher: refresher,
		log:       log,
		interval:  interval,
		startedAt: time.Now(),
	}
}

// Start runs a refresh immediately and then on every tick until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	_, _ = r.RunOnce(ctx, false)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = r.RunOnce(ctx, false)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce refreshes the list when its TTL has passed, or unconditionally when force is set.
func (r *Runner) RunOnce(ctx context.Context, force bool) (*usecase.RefreshServicesListResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	result, err := r.refresher.Execute(runCtx, force)
	runAt := time.Now()

	if err != nil {
		wrappedErr := fmt.Errorf("services refresh failed: %w", err)
		r.updateFailure(runAt, wrappedErr)
		r.log.Error("Services refresh cycle failed", wrappedErr)
		return nil, wrappedErr
	}

	r.updateSuccess(runAt, result)

	if result.Refreshed {
		r.log.Info("Services list refreshed",
			"path", result.Path,
			"services", result.ServiceCount,
		)
	} else {
		r.log.Debug("Services list is fresh", "path", result.Path)
	}

	return result, nil
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		StartedAt: r.startedAt,
		Interval:  r.interval,
		LastRunAt: r.lastRunAt,
		LastError: r.lastError,
		Runs:      r.runs,
	}

	if r.lastRefresh != nil {
		copied := *r.lastRefresh
		snapshot.LastRefresh = &copied
	}

	return snapshot
}

// Ready reports whether the last cycle succeeded recently enough.
func (r *Runner) Ready(now time.Time) error {
	snapshot := r.Snapshot()
	if snapshot.LastRunAt.IsZero() {
		return fmt.Errorf("no services refresh cycle yet")
	}
	if now.Sub(snapshot.LastRunAt) > snapshot.Interval*3 {
		return fmt.Errorf("stale services refresh cycle")
	}
	if snapshot.LastError != "" {
		return fmt.Errorf("last services refresh cycle failed")
	}
	return nil
}

func (r *Runner) updateFailure(runAt time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = err.Error()
	r.runs++
}

func (r *Runner) updateSuccess(runAt time.Time, result *usecase.RefreshServicesListResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = ""
	r.runs++
	r.lastRefresh = result
}

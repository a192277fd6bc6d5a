package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/service"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type RefreshServicesListConfig struct {
	Environment string
	TTL         time.Duration
}

type RefreshServicesListResult struct {
	Refreshed    bool       `json:"refreshed"`
	Path         string     `json:"path"`
	ServiceCount int        `json:"serviceCount"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// RefreshServicesListUseCase перегенерирует services.json, если снимок устарел
type RefreshServicesListUseCase struct {
	source    port.MetricSource
	publisher port.ReportPublisher
	config    RefreshServicesListConfig
	now       func() time.Time
	logger    *logger.Logger
}

func NewRefreshServicesListUseCase(
	source port.MetricSource,
	publisher port.ReportPublisher,
	config RefreshServicesListConfig,
	log *logger.Logger,
) *RefreshServicesListUseCase {
	return &RefreshServicesListUseCase{
		source:    source,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		logger:    log,
	}
}

// Execute обновляет список при отсутствии или устаревании снимка, force игнорирует TTL
func (uc *RefreshServicesListUseCase) Execute(ctx context.Context, force bool) (*RefreshServicesListResult, error) {
	listPath := ServicesListPath(uc.config.Environment)
	now := uc.now()

	lastModified, err := uc.publisher.LastModified(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", listPath, err)
	}

	var age *time.Duration
	if lastModified != nil {
		elapsed := now.Sub(*lastModified)
		age = &elapsed
	}

	result := &RefreshServicesListResult{Path: listPath, LastModified: lastModified}
	if !force && !service.ShouldRefresh(age, uc.config.TTL) {
		uc.logger.Debug("Services list is fresh", "path", listPath, "age", age.String())
		return result, nil
	}

	names, err := uc.source.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list services: %w", errs.ErrSourceUnavailable, err)
	}

	list := entity.NewServicesList(uc.config.Environment, names, now)
	body, err := json.Marshal(dto.FromServicesList(list))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal services list: %w", err)
	}

	if err := uc.publisher.Write(ctx, listPath, body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrPublishFailure, listPath, err)
	}

	result.Refreshed = true
	result.ServiceCount = len(list.Services)

	uc.logger.Info("Services list refreshed", "path", listPath, "services", result.ServiceCount)
	return result, nil
}

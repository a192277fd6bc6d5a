package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/dto"
	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

// ErrReportNotFound означает, что для сервиса еще не публиковался отчет
var ErrReportNotFound = errors.New("report not found")

// ErrInvalidServiceName означает, что имя сервиса нельзя использовать в пути объекта
var ErrInvalidServiceName = errors.New("invalid service name")

// GetReportSummaryUseCase возвращает последнюю сводку сервиса с кешированием
type GetReportSummaryUseCase struct {
	publisher   port.ReportPublisher
	cache       port.Cache
	environment string
	logger      *logger.Logger
}

// NewGetReportSummaryUseCase создает use case, cache может быть nil
func NewGetReportSummaryUseCase(
	publisher port.ReportPublisher,
	cache port.Cache,
	environment string,
	log *logger.Logger,
) *GetReportSummaryUseCase {
	return &GetReportSummaryUseCase{
		publisher:   publisher,
		cache:       cache,
		environment: environment,
		logger:      log,
	}
}

// Execute выполняет получение сводки
func (uc *GetReportSummaryUseCase) Execute(ctx context.Context, serviceName string) (*dto.ReportSummaryDTO, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" || strings.ContainsAny(serviceName, `/\`) || strings.Contains(serviceName, "..") {
		return nil, ErrInvalidServiceName
	}

	cacheKey := ReportCacheKey(uc.environment, serviceName)

	// Пытаемся получить из кеша
	if uc.cache != nil {
		var cached dto.ReportSummaryDTO
		err := uc.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			uc.logger.Debug("Cache hit for report summary", "service", serviceName)
			return &cached, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			uc.logger.Warn("Report cache unavailable", "service", serviceName, "error", err.Error())
		}
	}

	// Cache miss - читаем из хранилища отчетов
	body, err := uc.publisher.Read(ctx, SummaryPath(uc.environment, serviceName))
	if errors.Is(err, port.ErrObjectNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report summary: %w", err)
	}

	var summary dto.ReportSummaryDTO
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode report summary: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKey, summary); err != nil {
			uc.logger.Warn("Failed to cache report summary", "service", serviceName, "error", err.Error())
		}
	}

	return &summary, nil
}

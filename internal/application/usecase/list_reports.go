package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

type ListReportsCommand struct {
	Limit  int
	Cursor string
}

type ListReportsConfig struct {
	Environment  string
	DefaultLimit int
	MaxLimit     int
}

type ListReportsUseCase struct {
	index  port.ReportIndexRepository
	config ListReportsConfig
	logger *logger.Logger
}

func NewListReportsUseCase(
	index port.ReportIndexRepository,
	config ListReportsConfig,
	log *logger.Logger,
) *ListReportsUseCase {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 25
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 100
	}
	return &ListReportsUseCase{
		index:  index,
		config: config,
		logger: log,
	}
}

func (uc *ListReportsUseCase) Execute(ctx context.Context, cmd ListReportsCommand) (*port.ReportIndexPage, error) {
	if uc.index == nil {
		return nil, fmt.Errorf("report index is not configured")
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = uc.config.DefaultLimit
	}
	if limit > uc.config.MaxLimit {
		limit = uc.config.MaxLimit
	}

	page, err := uc.index.ListByEnvironment(ctx, port.ReportIndexQuery{
		Environment: uc.config.Environment,
		Limit:       limit,
		Cursor:      strings.TrimSpace(cmd.Cursor),
	})
	if err != nil {
		uc.logger.Error("Failed to list report index", err, "environment", uc.config.Environment)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return &page, nil
}

package usecase

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/errs"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
	"github.com/google/uuid"
)

// BatchItem is one inbound message. DecodeErr is set when the payload could not be parsed.
type BatchItem struct {
	MessageID string
	Event     entity.TestResultEvent
	DecodeErr error
}

type BatchItemResult struct {
	MessageID   string
	Service     string
	SummaryPath string
	Err         error
}

// Acknowledge reports whether the message may be removed from its source.
// Malformed messages are acknowledged since redelivery cannot fix them.
func (r BatchItemResult) Acknowledge() bool {
	return !errs.Retryable(r.Err)
}

type BatchResult struct {
	BatchID         string
	Items           []BatchItemResult
	ServicesRefresh *RefreshServicesListResult
	ServicesErr     error
	// ServicesPending is set when the refresh had not finished by the time the events were done.
	ServicesPending bool
	Duration        time.Duration
}

// Failed returns the results that must stay on the queue.
func (r *BatchResult) Failed() []BatchItemResult {
	failed := make([]BatchItemResult, 0)
	for _, item := range r.Items {
		if !item.Acknowledge() {
			failed = append(failed, item)
		}
	}
	return failed
}

type reportGenerator interface {
	Execute(ctx context.Context, event entity.TestResultEvent) (*GenerateReportResult, error)
}

type servicesRefresher interface {
	Execute(ctx context.Context, force bool) (*RefreshServicesListResult, error)
}

const (
	defaultServicesRefreshTimeout = 30 * time.Second
	// запас до дедлайна вызова, чтобы успеть вернуть ответ пачки
	deadlineMargin = time.Second
)

type refreshOutcome struct {
	result *RefreshServicesListResult
	err    error
}

// ProcessBatchUseCase обрабатывает события пачки параллельно, ошибки изолированы по событиям.
// События одного сервиса обрабатываются последовательно по возрастанию времени,
// чтобы summary.json отражал самое новое событие.
// Обновление списка сервисов идет в фоне и не задерживает ответ пачки.
type ProcessBatchUseCase struct {
	generator      reportGenerator
	refresher      servicesRefresher
	refreshTimeout time.Duration
	// refreshGrace - сколько ждать незавершенное обновление после обработки событий
	refreshGrace time.Duration
	logger       *logger.Logger
}

// NewProcessBatchUseCase принимает refresher == nil, если обновление списка сервисов отключено
func NewProcessBatchUseCase(
	generator *GenerateReportUseCase,
	refresher *RefreshServicesListUseCase,
	log *logger.Logger,
) *ProcessBatchUseCase {
	uc := &ProcessBatchUseCase{
		generator:      generator,
		refreshTimeout: defaultServicesRefreshTimeout,
		logger:         log,
	}
	if refresher != nil {
		uc.refresher = refresher
	}
	return uc
}

func (uc *ProcessBatchUseCase) Execute(ctx context.Context, items []BatchItem) *BatchResult {
	started := time.Now()
	result := &BatchResult{
		BatchID: uuid.New().String(),
		Items:   make([]BatchItemResult, len(items)),
	}
	log := uc.logger.With("batch_id", result.BatchID)
	log.Info("Processing batch", "messages", len(items))

	var refreshDone <-chan refreshOutcome
	if uc.refresher != nil {
		refreshDone = uc.startRefresh(ctx, log)
	}

	var wg sync.WaitGroup
	for _, group := range groupByService(items) {
		wg.Add(1)
		go func(group []int) {
			defer wg.Done()
			for _, i := range group {
				result.Items[i] = uc.processItem(ctx, log, items[i])
			}
		}(group)
	}
	wg.Wait()

	if refreshDone != nil {
		uc.collectRefresh(refreshDone, result)
	}
	result.Duration = time.Since(started)

	failed := result.Failed()
	log.Info("Batch processed",
		"messages", len(items),
		"failed", len(failed),
		"duration", result.Duration.String(),
	)

	return result
}

func (uc *ProcessBatchUseCase) processItem(ctx context.Context, log *logger.Logger, item BatchItem) BatchItemResult {
	itemResult := BatchItemResult{
		MessageID: item.MessageID,
		Service:   item.Event.ServiceName(),
	}

	if item.DecodeErr != nil {
		itemResult.Err = item.DecodeErr
		log.Error("Dropping undecodable message", item.DecodeErr, "message_id", item.MessageID)
		return itemResult
	}

	generated, err := uc.generator.Execute(ctx, item.Event)
	if err != nil {
		itemResult.Err = err
		if errors.Is(err, errs.ErrMalformedEvent) {
			log.Error("Dropping malformed event", err, "message_id", item.MessageID)
		} else {
			log.Error("Failed to generate report", err,
				"message_id", item.MessageID,
				"service", itemResult.Service,
			)
		}
		return itemResult
	}

	itemResult.SummaryPath = generated.SummaryPath
	return itemResult
}

// startRefresh запускает обновление списка сервисов с собственным таймаутом,
// ограниченным дедлайном вызова. Отмена ctx после ответа пачки его не прерывает.
func (uc *ProcessBatchUseCase) startRefresh(ctx context.Context, log *logger.Logger) <-chan refreshOutcome {
	done := make(chan refreshOutcome, 1)

	timeout := uc.refreshTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - deadlineMargin; remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		log.Warn("Services list refresh skipped, invocation deadline too close")
		close(done)
		return done
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	go func() {
		defer cancel()
		refresh, err := uc.refresher.Execute(refreshCtx, false)
		if err != nil {
			log.Warn("Services list refresh skipped", "error", err.Error())
		}
		done <- refreshOutcome{result: refresh, err: err}
	}()
	return done
}

func (uc *ProcessBatchUseCase) collectRefresh(done <-chan refreshOutcome, result *BatchResult) {
	var outcome refreshOutcome
	var ok bool
	if uc.refreshGrace > 0 {
		timer := time.NewTimer(uc.refreshGrace)
		defer timer.Stop()
		select {
		case outcome, ok = <-done:
		case <-timer.C:
			result.ServicesPending = true
			return
		}
	} else {
		select {
		case outcome, ok = <-done:
		default:
			result.ServicesPending = true
			return
		}
	}
	if !ok {
		return
	}
	result.ServicesRefresh = outcome.result
	result.ServicesErr = outcome.err
}

// groupByService группирует индексы событий по сервису в порядке возрастания времени.
// Нераспознанные сообщения образуют отдельные группы.
func groupByService(items []BatchItem) [][]int {
	groups := make([][]int, 0, len(items))
	byService := make(map[string]int)
	for i, item := range items {
		key := "#" + strconv.Itoa(i)
		if name := item.Event.ServiceName(); item.DecodeErr == nil && name != "" {
			key = name
		}
		if g, ok := byService[key]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		byService[key] = len(groups)
		groups = append(groups, []int{i})
	}
	for _, group := range groups {
		sort.SliceStable(group, func(a, b int) bool {
			return items[group[a]].Event.Timestamp < items[group[b]].Event.Timestamp
		})
	}
	return groups
}

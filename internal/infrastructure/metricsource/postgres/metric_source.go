package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/valueobject"
)

const defaultPageSize = 500

const schema = `
	CREATE TABLE IF NOT EXISTS test_results (
		id                  BIGSERIAL PRIMARY KEY,
		service             TEXT NOT NULL,
		executed_at         TIMESTAMPTZ NOT NULL,
		succeeded           BOOLEAN NOT NULL,
		test_execution_secs DOUBLE PRECISION
	);
	CREATE INDEX IF NOT EXISTS test_results_service_executed_at_idx
		ON test_results (service, executed_at DESC, id DESC);
`

// MetricSource реализует port.MetricSource поверх таблицы test_results
type MetricSource struct {
	db       *sql.DB
	pageSize int
}

// NewMetricSource создает PostgreSQL источник результатов тестов
func NewMetricSource(db *sql.DB, pageSize int) *MetricSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &MetricSource{
		db:       db,
		pageSize: pageSize,
	}
}

// Open подключается к БД по DSN и проверяет соединение
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema создает таблицу test_results, если ее нет
func (s *MetricSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create test_results schema: %w", err)
	}
	return nil
}

// FetchPoints возвращает постраничный итератор по результатам сервиса, новые первыми
func (s *MetricSource) FetchPoints(service string, window valueobject.TimeRange) port.PointPaginator {
	return &pointPaginator{
		db:       s.db,
		service:  service,
		window:   window,
		pageSize: s.pageSize,
		first:    true,
	}
}

// ListServices возвращает все сервисы, для которых есть результаты
func (s *MetricSource) ListServices(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT service FROM test_results ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	services := make([]string, 0)
	for rows.Next() {
		var service string
		if err := rows.Scan(&service); err != nil {
			return nil, fmt.Errorf("failed to scan service row: %w", err)
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return services, nil
}

// keysetCursor указывает на последнюю прочитанную строку
type keysetCursor struct {
	executedAt time.Time
	id         int64
}

type pointPaginator struct {
	db       *sql.DB
	service  string
	window   valueobject.TimeRange
	pageSize int

	first  bool
	done   bool
	cursor *keysetCursor
}

func (p *pointPaginator) HasMorePages() bool {
	return p.first || !p.done
}

func (p *pointPaginator) NextPage(ctx context.Context) ([]entity.MetricPoint, error) {
	if !p.HasMorePages() {
		return nil, fmt.Errorf("no more pages available")
	}
	p.first = false

	query, args := buildPageQuery(p.service, p.window, p.cursor, p.pageSize)
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}
	defer rows.Close()

	points := make([]entity.MetricPoint, 0, p.pageSize)
	var last *TestResultRow
	for rows.Next() {
		row, err := ScanTestResultRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test result row: %w", err)
		}
		points = append(points, row.ToPoint())
		last = row
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	p.done = len(points) < p.pageSize
	if last != nil {
		p.cursor = &keysetCursor{executedAt: last.ExecutedAt, id: last.ID}
	}

	return points, nil
}

// buildPageQuery строит запрос страницы с keyset-пагинацией по (executed_at, id)
func buildPageQuery(service string, window valueobject.TimeRange, cursor *keysetCursor, limit int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, executed_at, succeeded, test_execution_secs
		FROM test_results
		WHERE service = $1 AND executed_at BETWEEN $2 AND $3`)

	args := []interface{}{service, window.Start(), window.End()}
	if cursor != nil {
		b.WriteString(`
		  AND (executed_at, id) < ($4, $5)`)
		args = append(args, cursor.executedAt, cursor.id)
	}

	args = append(args, limit)
	fmt.Fprintf(&b, `
		ORDER BY executed_at DESC, id DESC
		LIMIT $%d`, len(args))

	return b.String(), args
}

package port

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound возвращается Read, если объект не публиковался
var ErrObjectNotFound = errors.New("object not found")

// ReportPublisher определяет интерфейс хранилища артефактов отчета (Port)
// Реализации: S3, локальная файловая система
type ReportPublisher interface {
	// Write атомарно заменяет объект по пути: читатели видят либо старое, либо новое содержимое
	Write(ctx context.Context, path string, body []byte) error

	// LastModified возвращает время последней записи или nil, если объекта нет
	LastModified(ctx context.Context, path string) (*time.Time, error)

	// Read возвращает содержимое объекта или ErrObjectNotFound
	Read(ctx context.Context, path string) ([]byte, error)
}

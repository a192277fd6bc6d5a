// Package errs содержит виды ошибок, общие для движка отчетов и адаптеров.
// Оборачиваются через fmt.Errorf("...: %w"), проверяются через errors.Is.
package errs

import "errors"

var (
	// ErrSourceUnavailable - хранилище метрик или перечисление сервисов недоступны
	ErrSourceUnavailable = errors.New("metric source unavailable")

	// ErrMalformedEvent - событие не может быть обработано никогда (нет service или succeeded)
	ErrMalformedEvent = errors.New("malformed event")

	// ErrEmptySeries - нет точек для определения исходного статуса
	ErrEmptySeries = errors.New("empty metric series")

	// ErrPublishFailure - артефакт отчета не записан в хранилище
	ErrPublishFailure = errors.New("report publish failed")
)

// Retryable сообщает, имеет ли смысл повторная доставка события
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrMalformedEvent)
}

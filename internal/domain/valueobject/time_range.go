package valueobject

import (
	"errors"
	"time"
)

// TimeRange представляет временной диапазон (Value Object)
// Иммутабельный объект, обе границы включены
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange создает новый TimeRange с валидацией
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.After(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}

	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("start and end times cannot be zero")
	}

	return TimeRange{
		start: start,
		end:   end,
	}, nil
}

// Start возвращает начальное время
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End возвращает конечное время
func (tr TimeRange) End() time.Time {
	return tr.end
}

// ContainsUnix проверяет вхождение epoch-seconds в диапазон, обе границы включены
func (tr TimeRange) ContainsUnix(ts int64) bool {
	return ts >= tr.start.Unix() && ts <= tr.end.Unix()
}

package valueobject

// Status представляет состояние сервиса по результату теста (Value Object)
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// StatusFromSucceeded переводит флаг succeeded в Status
func StatusFromSucceeded(succeeded bool) Status {
	if succeeded {
		return StatusSuccess
	}
	return StatusFailure
}

// String возвращает строковое представление статуса
func (s Status) String() string {
	return string(s)
}

// IsSuccess проверяет, является ли статус успешным
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

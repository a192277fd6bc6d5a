package service

import "time"

// ShouldRefresh решает, нужно ли перегенерировать список сервисов.
// age == nil означает, что список еще не публиковался.
func ShouldRefresh(age *time.Duration, ttl time.Duration) bool {
	if age == nil {
		return true
	}
	return *age > ttl
}

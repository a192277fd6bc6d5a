package entity

import "sort"

// MetricPoint представляет результат одного прогона теста
type MetricPoint struct {
	Timestamp            int64   `json:"timestamp"`
	Succeeded            bool    `json:"succeeded"`
	TestExecutionSeconds float64 `json:"testExecutionSeconds"`
}

// SortChronologically возвращает копию точек, отсортированную по возрастанию времени.
// Порядок точек с одинаковым timestamp сохраняется.
func SortChronologically(points []MetricPoint) []MetricPoint {
	sorted := make([]MetricPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

package service

import "math"

func minutesBetween(from, to int64) float64 {
	return float64(to-from) / 60
}

// RoundMinutes округляет минуты до двух знаков после запятой
func RoundMinutes(minutes float64) float64 {
	return math.Round(minutes*100) / 100
}

package valueobject

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var rangeSpecPattern = regexp.MustCompile(`^([1-9][0-9]{0,3})d$`)

// TimeRangeSpec представляет скользящее окно вида "7d" (последние N дней до текущего момента)
type TimeRangeSpec string

// ParseTimeRangeSpec валидирует метку формата "<N>d"
func ParseTimeRangeSpec(raw string) (TimeRangeSpec, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !rangeSpecPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid time range %q: expected <days>d", raw)
	}
	return TimeRangeSpec(normalized), nil
}

// ParseTimeRangeSpecs разбирает список меток, убирает дубликаты и сортирует по возрастанию ширины
func ParseTimeRangeSpecs(raw []string) ([]TimeRangeSpec, error) {
	seen := make(map[TimeRangeSpec]struct{}, len(raw))
	specs := make([]TimeRangeSpec, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		spec, err := ParseTimeRangeSpec(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[spec]; ok {
			continue
		}
		seen[spec] = struct{}{}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one time range is required")
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Days() < specs[j].Days()
	})
	return specs, nil
}

// Days возвращает N (0 для невалидной метки)
func (s TimeRangeSpec) Days() int {
	match := rangeSpecPattern.FindStringSubmatch(string(s))
	if match == nil {
		return 0
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return days
}

// Resolve возвращает диапазон [now - N дней, now]
func (s TimeRangeSpec) Resolve(now time.Time) TimeRange {
	return TimeRange{
		start: now.AddDate(0, 0, -s.Days()),
		end:   now,
	}
}

func (s TimeRangeSpec) String() string {
	return string(s)
}

// Widest возвращает самое широкое окно
func Widest(specs []TimeRangeSpec) TimeRangeSpec {
	var widest TimeRangeSpec
	for _, spec := range specs {
		if spec.Days() > widest.Days() {
			widest = spec
		}
	}
	return widest
}

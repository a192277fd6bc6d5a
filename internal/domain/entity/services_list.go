package entity

import (
	"sort"
	"strings"
	"time"
)

// ServicesList представляет опубликованный список сервисов окружения
type ServicesList struct {
	Environment string
	Services    []string
	GeneratedOn time.Time
}

// NewServicesList нормализует имена: обрезает пробелы, убирает пустые и дубликаты, сортирует
func NewServicesList(environment string, names []string, generatedOn time.Time) ServicesList {
	seen := make(map[string]struct{}, len(names))
	services := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		services = append(services, name)
	}
	sort.Strings(services)

	return ServicesList{
		Environment: environment,
		Services:    services,
		GeneratedOn: generatedOn.UTC(),
	}
}

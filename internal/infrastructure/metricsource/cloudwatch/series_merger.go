package cloudwatch

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/billtrust/sla-monitor-report-lambda/internal/domain/entity"
)

const (
	statusQueryID   = "status"
	durationQueryID = "duration"
)

// seriesMerger joins the status and duration series of GetMetricData pages into points.
// Both series are scanned newest first, so once the duration series has reached a
// timestamp, no later page can add a duration for it.
type seriesMerger struct {
	pending   map[int64]entity.MetricPoint
	durations map[int64]float64

	durationLow  int64
	durationSeen bool
	durationDone bool
}

func newSeriesMerger() *seriesMerger {
	return &seriesMerger{
		pending:   make(map[int64]entity.MetricPoint),
		durations: make(map[int64]float64),
	}
}

func (m *seriesMerger) add(results []types.MetricDataResult) {
	for _, result := range results {
		switch aws.ToString(result.Id) {
		case statusQueryID:
			for i, timestamp := range result.Timestamps {
				if i >= len(result.Values) {
					break
				}
				ts := timestamp.Unix()
				m.pending[ts] = entity.MetricPoint{
					Timestamp: ts,
					Succeeded: result.Values[i] == 0,
				}
			}
		case durationQueryID:
			for i, timestamp := range result.Timestamps {
				if i >= len(result.Values) {
					break
				}
				ts := timestamp.Unix()
				m.durations[ts] = result.Values[i]
				if !m.durationSeen || ts < m.durationLow {
					m.durationLow = ts
					m.durationSeen = true
				}
			}
			if result.StatusCode == types.StatusCodeComplete {
				m.durationDone = true
			}
		}
	}
}

// settled returns the pending points whose duration can no longer change.
func (m *seriesMerger) settled() []entity.MetricPoint {
	return m.take(func(ts int64) bool {
		return m.durationDone || (m.durationSeen && m.durationLow <= ts)
	})
}

// drain returns every pending point. Used after the last page.
func (m *seriesMerger) drain() []entity.MetricPoint {
	return m.take(func(int64) bool { return true })
}

func (m *seriesMerger) take(ready func(ts int64) bool) []entity.MetricPoint {
	points := make([]entity.MetricPoint, 0, len(m.pending))
	for ts, point := range m.pending {
		if !ready(ts) {
			continue
		}
		point.TestExecutionSeconds = m.durations[ts]
		points = append(points, point)
		delete(m.pending, ts)
		delete(m.durations, ts)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp > points[j].Timestamp
	})
	return points
}

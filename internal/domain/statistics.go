package domain

import (
	"sort"
	"time"
)

// StatisticsWindowDays is the trailing window, in days, covered by median latencies.
const StatisticsWindowDays = 30

// CallStatistics aggregates recorded API calls per alias.
type CallStatistics struct {
	// MedianResponseTime maps alias -> day offset (0 = today) -> median seconds.
	// Days with no calls are absent.
	MedianResponseTime map[string]map[int]float64 `json:"median_response_time"`
	CallsByPath        map[string]map[string]int  `json:"calls_by_path"`
	CallsByMethod      map[string]map[string]int  `json:"calls_by_method"`
	CallsByStatus      map[string]map[int]int     `json:"calls_by_status"`
}

func NewCallStatistics(calls []APICall, now time.Time) *CallStatistics {
	s := &CallStatistics{
		MedianResponseTime: make(map[string]map[int]float64),
		CallsByPath:        make(map[string]map[string]int),
		CallsByMethod:      make(map[string]map[string]int),
		CallsByStatus:      make(map[string]map[int]int),
	}

	elapsedByDay := make(map[string]map[int][]float64)
	for _, c := range calls {
		if _, ok := elapsedByDay[c.Alias]; !ok {
			elapsedByDay[c.Alias] = make(map[int][]float64)
			s.CallsByPath[c.Alias] = make(map[string]int)
			s.CallsByMethod[c.Alias] = make(map[string]int)
			s.CallsByStatus[c.Alias] = make(map[int]int)
		}
		s.CallsByPath[c.Alias][c.Path]++
		s.CallsByMethod[c.Alias][c.Method]++
		s.CallsByStatus[c.Alias][c.Status]++

		day := dayOffset(now, c.Timestamp)
		if day > StatisticsWindowDays {
			continue
		}
		elapsedByDay[c.Alias][day] = append(elapsedByDay[c.Alias][day], c.Elapsed)
	}

	for alias, days := range elapsedByDay {
		medians := make(map[int]float64, len(days))
		for day, values := range days {
			medians[day] = median(values)
		}
		s.MedianResponseTime[alias] = medians
	}
	return s
}

func dayOffset(now, ts time.Time) int {
	d := int(now.Sub(ts) / (24 * time.Hour))
	if d < 0 {
		return -d
	}
	return d
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

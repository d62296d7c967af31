package domain_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
)

func TestNewCallStatistics_MedianLast30Days(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	call := func(alias string, elapsed float64, ago time.Duration) domain.APICall {
		return domain.APICall{Alias: alias, Path: "/user", Method: "POST", Status: 200,
			Elapsed: elapsed, Timestamp: now.Add(-ago)}
	}

	stats := domain.NewCallStatistics([]domain.APICall{
		call("Jenny 1", 1, day),
		call("Jenny 1", 2, day),
		call("Jenny 1", 2, 2*day),
		call("Jenny 1", 2, 10*day),
		call("Jenny 1", 10, 10*day),
		call("Jenny 1", 20, 10*day),
		call("Jenny 1", 20, 40*day),
		call("Jenny 2", 1, day),
	}, now)

	j1 := stats.MedianResponseTime["Jenny 1"]
	if len(j1) != 3 {
		t.Fatalf("Jenny 1 days = %v, want 3 entries", j1)
	}
	want := map[int]float64{1: 1.5, 2: 2, 10: 10}
	for d, m := range want {
		if j1[d] != m {
			t.Errorf("Jenny 1 day %d median = %v, want %v", d, j1[d], m)
		}
	}
	j2 := stats.MedianResponseTime["Jenny 2"]
	if len(j2) != 1 || j2[1] != 1 {
		t.Errorf("Jenny 2 medians = %v", j2)
	}
}

func TestNewCallStatistics_Counts(t *testing.T) {
	now := time.Now()
	stats := domain.NewCallStatistics([]domain.APICall{
		{Alias: "a", Path: "/user", Method: "POST", Status: 200, Timestamp: now},
		{Alias: "a", Path: "/user", Method: "GET", Status: 404, Timestamp: now},
		{Alias: "a", Path: "/user/login", Method: "POST", Status: 200, Timestamp: now.Add(-60 * 24 * time.Hour)},
		{Alias: "b", Path: "/health", Method: "GET", Status: 200, Timestamp: now},
	}, now)

	if got := stats.CallsByPath["a"]["/user"]; got != 2 {
		t.Errorf("a /user = %d, want 2", got)
	}
	if got := stats.CallsByPath["a"]["/user/login"]; got != 1 {
		t.Errorf("a /user/login = %d, want 1 (counts are not windowed)", got)
	}
	if got := stats.CallsByMethod["a"]["POST"]; got != 2 {
		t.Errorf("a POST = %d, want 2", got)
	}
	if got := stats.CallsByStatus["a"][404]; got != 1 {
		t.Errorf("a 404 = %d, want 1", got)
	}
	if got := stats.CallsByStatus["b"][200]; got != 1 {
		t.Errorf("b 200 = %d, want 1", got)
	}
}

func TestNewCallStatistics_Empty(t *testing.T) {
	stats := domain.NewCallStatistics(nil, time.Now())
	if len(stats.MedianResponseTime) != 0 || len(stats.CallsByPath) != 0 {
		t.Errorf("expected empty statistics, got %+v", stats)
	}
}

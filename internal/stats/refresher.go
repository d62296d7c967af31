// Package stats periodically recomputes API call statistics and publishes
// them as Prometheus gauges.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

type source interface {
	Statistics(ctx context.Context) (*domain.CallStatistics, error)
}

type Refresher struct {
	source   source
	schedule cron.Schedule
	logger   *slog.Logger

	calls   *prometheus.GaugeVec
	medians *prometheus.GaugeVec
}

// NewRefresher parses spec (standard cron syntax or a descriptor such as
// "@every 1m") and registers the statistics gauges on reg.
func NewRefresher(src source, spec string, logger *slog.Logger, reg prometheus.Registerer) (*Refresher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse stats refresh spec %q: %w", spec, err)
	}

	calls := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "api_calls",
		Help:      "Recorded API calls per alias, grouped by path, method or status.",
	}, []string{"alias", "dimension", "value"})
	medians := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "api_call_median_seconds",
		Help:      "Median API call latency per alias and day offset (0 = today).",
	}, []string{"alias", "day"})
	reg.MustRegister(calls, medians)

	return &Refresher{
		source:   src,
		schedule: schedule,
		logger:   logger.With("component", "stats_refresher"),
		calls:    calls,
		medians:  medians,
	}, nil
}

// Start refreshes once, then on every schedule tick until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("stats refresher started")
	r.Refresh(ctx)

	for {
		timer := time.NewTimer(time.Until(r.schedule.Next(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("stats refresher shut down")
			return
		case <-timer.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh recomputes the gauges. Failures are logged and the previous
// values are kept.
func (r *Refresher) Refresh(ctx context.Context) {
	s, err := r.source.Statistics(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "compute call statistics", "error", err)
		return
	}

	r.calls.Reset()
	r.medians.Reset()

	for alias, byPath := range s.CallsByPath {
		for path, n := range byPath {
			r.calls.WithLabelValues(alias, "path", path).Set(float64(n))
		}
	}
	for alias, byMethod := range s.CallsByMethod {
		for method, n := range byMethod {
			r.calls.WithLabelValues(alias, "method", method).Set(float64(n))
		}
	}
	for alias, byStatus := range s.CallsByStatus {
		for status, n := range byStatus {
			r.calls.WithLabelValues(alias, "status", strconv.Itoa(status)).Set(float64(n))
		}
	}
	for alias, byDay := range s.MedianResponseTime {
		for day, seconds := range byDay {
			r.medians.WithLabelValues(alias, strconv.Itoa(day)).Set(seconds)
		}
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

// Outcome label values shared by the counters below.
const (
	OutcomeSuccess       = "success"
	OutcomeNotFound      = "not_found"
	OutcomeWrongPassword = "wrong_password"
	OutcomeFailed        = "failed"
)

// Metrics holds every collector the API process exports. A nil *Metrics is
// valid and records nothing, which keeps usecase tests free of registries.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec

	LoginsTotal         *prometheus.CounterVec
	RecoveryEmailsTotal *prometheus.CounterVec
	APICallsRecorded    *prometheus.CounterVec
	APIKeysIssuedTotal  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),

		RecoveryEmailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_emails_total",
			Help:      "Password recovery emails dispatched, by outcome.",
		}, []string{"outcome"}),

		APICallsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_recorded_total",
			Help:      "Metered API calls written to the call log, by outcome.",
		}, []string{"outcome"}),

		APIKeysIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_keys_issued_total",
			Help:      "API keys issued or re-issued.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
		m.LoginsTotal,
		m.RecoveryEmailsTotal,
		m.APICallsRecorded,
		m.APIKeysIssuedTotal,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecoveryEmail(outcome string) {
	if m == nil {
		return
	}
	m.RecoveryEmailsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) APICallRecorded(outcome string) {
	if m == nil {
		return
	}
	m.APICallsRecorded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) APIKeyIssued() {
	if m == nil {
		return
	}
	m.APIKeysIssuedTotal.Inc()
}

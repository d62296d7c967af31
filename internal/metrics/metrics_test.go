package metrics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/auth-server/internal/health"
	"github.com/ErlanBelekov/auth-server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeHealth struct {
	ready health.HealthResult
}

func (f *fakeHealth) Liveness(context.Context) health.HealthResult {
	return health.HealthResult{Status: "up"}
}

func (f *fakeHealth) Readiness(context.Context) health.HealthResult { return f.ready }

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.LoginAttempt(metrics.OutcomeSuccess)
	m.RecoveryEmail(metrics.OutcomeFailed)
	m.APICallRecorded(metrics.OutcomeSuccess)
	m.APIKeyIssued()
	m.ObserveRequest("GET", "/health", "200", 0.1)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.LoginAttempt(metrics.OutcomeSuccess)
	m.LoginAttempt(metrics.OutcomeSuccess)
	m.LoginAttempt(metrics.OutcomeWrongPassword)
	m.APIKeyIssued()

	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues(metrics.OutcomeSuccess)); got != 2 {
		t.Errorf("logins success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues(metrics.OutcomeWrongPassword)); got != 1 {
		t.Errorf("logins wrong_password = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIKeysIssuedTotal); got != 1 {
		t.Errorf("api keys issued = %v, want 1", got)
	}
}

func TestServer_HealthEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	checker := &fakeHealth{ready: health.HealthResult{
		Status: "down",
		Checks: map[string]health.CheckResult{"postgres": {Status: "down", Error: "refused"}},
	}}
	srv := metrics.NewServer(":0", reg, checker)

	tests := []struct {
		path string
		want int
	}{
		{"/livez", http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var body health.HealthResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body.Checks["postgres"].Error != "refused" {
		t.Errorf("readyz body = %+v", body)
	}
}

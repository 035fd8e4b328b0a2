package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func staticChecker(name string, status Status, critical bool) Checker {
	return CheckerFunc{
		CheckName: name,
		Critical:  critical,
		Fn: func(ctx context.Context) CheckResult {
			return CheckResult{
				Component: name,
				Status:    status,
				Critical:  critical,
				Timestamp: time.Now(),
			}
		},
	}
}

func TestOverallAggregation(t *testing.T) {
	cases := []struct {
		name     string
		checkers []Checker
		want     Status
		ready    bool
	}{
		{
			name: "all healthy",
			checkers: []Checker{
				staticChecker("redis", StatusHealthy, true),
				staticChecker("database", StatusHealthy, false),
			},
			want:  StatusHealthy,
			ready: true,
		},
		{
			name: "non-critical failure degrades",
			checkers: []Checker{
				staticChecker("redis", StatusHealthy, true),
				staticChecker("model_provider", StatusUnhealthy, false),
			},
			want:  StatusDegraded,
			ready: true,
		},
		{
			name: "critical failure is unhealthy",
			checkers: []Checker{
				staticChecker("redis", StatusUnhealthy, true),
			},
			want:  StatusUnhealthy,
			ready: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(zap.NewNop())
			for _, c := range tc.checkers {
				m.Register(c)
			}
			m.runChecks()

			status, results := m.Overall()
			assert.Equal(t, tc.want, status)
			assert.Len(t, results, len(tc.checkers))
			assert.Equal(t, tc.ready, m.IsReady())
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(staticChecker("redis", StatusUnhealthy, true))
	m.runChecks()

	mux := http.NewServeMux()
	m.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

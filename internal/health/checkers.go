package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/wanderwise-ai/orchestrator/internal/circuitbreaker"
)

const slowThreshold = 100 * time.Millisecond

// RedisChecker checks Redis connectivity.
type RedisChecker struct {
	client  redis.UniversalClient
	wrapper *circuitbreaker.RedisWrapper
}

func NewRedisChecker(client redis.UniversalClient, wrapper *circuitbreaker.RedisWrapper) *RedisChecker {
	return &RedisChecker{client: client, wrapper: wrapper}
}

func (r *RedisChecker) Name() string     { return "redis" }
func (r *RedisChecker) IsCritical() bool { return true }

func (r *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{Component: "redis", Critical: true, Timestamp: start}

	if r.wrapper != nil && r.wrapper.IsCircuitBreakerOpen() {
		result.Status = StatusUnhealthy
		result.Error = "circuit breaker open"
		return result
	}

	err := r.client.Ping(ctx).Err()
	result.LatencyMS = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Redis ping failed"
	case time.Since(start) > slowThreshold:
		result.Status = StatusDegraded
		result.Message = "Redis responding with high latency"
	default:
		result.Status = StatusHealthy
	}
	return result
}

// DatabaseChecker checks PostgreSQL connectivity and pool pressure.
type DatabaseChecker struct {
	db      *sqlx.DB
	wrapper *circuitbreaker.DatabaseWrapper
}

func NewDatabaseChecker(db *sqlx.DB, wrapper *circuitbreaker.DatabaseWrapper) *DatabaseChecker {
	return &DatabaseChecker{db: db, wrapper: wrapper}
}

func (d *DatabaseChecker) Name() string     { return "database" }
func (d *DatabaseChecker) IsCritical() bool { return false } // plans work without persistence

func (d *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{Component: "database", Timestamp: start}

	if d.wrapper != nil && d.wrapper.IsCircuitBreakerOpen() {
		result.Status = StatusUnhealthy
		result.Error = "circuit breaker open"
		return result
	}

	err := d.db.PingContext(ctx)
	result.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Database ping failed"
		return result
	}

	stats := d.db.Stats()
	result.Details = map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"max_open_connections": stats.MaxOpenConnections,
		"in_use_connections":   stats.InUse,
	}

	switch {
	case stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections:
		result.Status = StatusDegraded
		result.Message = "Database connection pool exhausted"
	case time.Since(start) > slowThreshold:
		result.Status = StatusDegraded
		result.Message = "Database responding with high latency"
	default:
		result.Status = StatusHealthy
	}
	return result
}

// ModelProviderChecker probes the model API's models endpoint. Failures
// are non-critical; planning degrades to deterministic fallbacks.
type ModelProviderChecker struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewModelProviderChecker(baseURL, apiKey string) *ModelProviderChecker {
	return &ModelProviderChecker{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (m *ModelProviderChecker) Name() string     { return "model_provider" }
func (m *ModelProviderChecker) IsCritical() bool { return false }

func (m *ModelProviderChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{Component: "model_provider", Timestamp: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/models", nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		return result
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Model provider unreachable"
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Model provider returned %d", resp.StatusCode)
		return result
	}
	if resp.StatusCode >= 400 {
		// Auth problems mean calls will fail even though the API is up.
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Model provider returned %d", resp.StatusCode)
		return result
	}

	result.Status = StatusHealthy
	return result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	CheckName string
	Critical  bool
	Fn        func(ctx context.Context) CheckResult
}

func (c CheckerFunc) Name() string                          { return c.CheckName }
func (c CheckerFunc) IsCritical() bool                      { return c.Critical }
func (c CheckerFunc) Check(ctx context.Context) CheckResult { return c.Fn(ctx) }

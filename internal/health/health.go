package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status of a single component or the service overall.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult contains the result of a health check
type CheckResult struct {
	Component string                 `json:"component"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	LatencyMS int64                  `json:"latency_ms"`
	Timestamp time.Time              `json:"timestamp"`
	Critical  bool                   `json:"critical"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
	// IsCritical marks checks whose failure takes the service out of
	// readiness. Non-critical components degrade instead.
	IsCritical() bool
}

// Manager runs registered checkers in the background and serves the probe
// endpoints from cached results.
type Manager struct {
	checkers map[string]Checker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu          sync.RWMutex
	lastResults map[string]CheckResult
	started     bool
	stopCh      chan struct{}
}

// NewManager creates a health manager with a 30s check interval.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers:    make(map[string]Checker),
		lastResults: make(map[string]CheckResult),
		interval:    30 * time.Second,
		timeout:     5 * time.Second,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Register adds a checker. Must be called before Start.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[checker.Name()] = checker
}

// Start runs all checks once, then on the interval until Stop.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.runChecks()
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.runChecks()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop halts background checking.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	close(m.stopCh)
	m.started = false
}

func (m *Manager) runChecks() {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	for _, checker := range checkers {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		result := checker.Check(ctx)
		cancel()

		if result.Status != StatusHealthy {
			m.logger.Warn("Health check not healthy",
				zap.String("component", result.Component),
				zap.String("status", string(result.Status)),
				zap.String("error", result.Error),
			)
		}

		m.mu.Lock()
		m.lastResults[checker.Name()] = result
		m.mu.Unlock()
	}
}

// Overall aggregates the cached results. A failing critical check makes
// the service unhealthy; any other failure degrades it.
func (m *Manager) Overall() (Status, map[string]CheckResult) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]CheckResult, len(m.lastResults))
	status := StatusHealthy
	for name, result := range m.lastResults {
		results[name] = result
		switch {
		case result.Status == StatusUnhealthy && result.Critical:
			status = StatusUnhealthy
		case result.Status != StatusHealthy && status == StatusHealthy:
			status = StatusDegraded
		}
	}
	return status, results
}

// IsReady reports whether all critical components are healthy.
func (m *Manager) IsReady() bool {
	status, _ := m.Overall()
	return status != StatusUnhealthy
}

// RegisterRoutes registers the probe endpoints.
func (m *Manager) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/health/ready", m.handleReady)
	mux.HandleFunc("/health/live", m.handleLive)
}

func (m *Manager) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, results := m.Overall()

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"components": results,
		"timestamp":  time.Now().UTC(),
	})
}

func (m *Manager) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !m.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"ready":false}`))
		return
	}
	w.Write([]byte(`{"ready":true}`))
}

func (m *Manager) handleLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"live":true}`))
}

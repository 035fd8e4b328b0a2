package ratecontrol

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wanderwise-ai/orchestrator/internal/metrics"
)

// Limiter applies a token-bucket rate limit per client. Clients are keyed
// by authenticated user ID when present, falling back to remote IP. Idle
// buckets are evicted after an hour.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a per-client limiter. rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientBucket),
	}
	if rps > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether a request from the given client may proceed.
func (l *Limiter) Allow(clientKey string) bool {
	if l.rps <= 0 {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.clients[clientKey]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[clientKey] = bucket
	}
	bucket.lastSeen = time.Now()
	l.mu.Unlock()

	return bucket.limiter.Allow()
}

// Middleware rejects over-limit requests with 429. keyFn extracts the
// client key from the request; a nil keyFn uses the remote IP.
func (l *Limiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = RemoteIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(keyFn(r)) {
				metrics.RateLimited.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RemoteIP extracts the caller's IP, honoring X-Forwarded-For from a
// trusted proxy.
func RemoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		l.mu.Lock()
		for key, bucket := range l.clients {
			if bucket.lastSeen.Before(cutoff) {
				delete(l.clients, key)
			}
		}
		l.mu.Unlock()
	}
}

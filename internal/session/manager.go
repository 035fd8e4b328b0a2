package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/circuitbreaker"
	"github.com/wanderwise-ai/orchestrator/internal/metrics"
	"github.com/wanderwise-ai/orchestrator/internal/orchestrator"
)

const (
	defaultTTL       = 24 * time.Hour
	maxCachedEntries = 10000
	maxHistory       = 50
)

// Manager handles chat sessions with a Redis backend and a small local
// cache in front of it.
type Manager struct {
	client *circuitbreaker.RedisWrapper
	logger *zap.Logger
	ttl    time.Duration

	mu          sync.RWMutex
	localCache  map[string]*Session
	cacheAccess map[string]time.Time
}

// NewManager connects to Redis and verifies the connection.
func NewManager(redisAddr string, logger *zap.Logger) (*Manager, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	client := circuitbreaker.NewRedisWrapper(redisClient, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return newManager(client, logger), nil
}

// NewManagerWithClient builds a manager over an existing Redis client
// (tests use miniredis here).
func NewManagerWithClient(redisClient *redis.Client, logger *zap.Logger) *Manager {
	return newManager(circuitbreaker.NewRedisWrapper(redisClient, logger), logger)
}

func newManager(client *circuitbreaker.RedisWrapper, logger *zap.Logger) *Manager {
	return &Manager{
		client:      client,
		logger:      logger,
		ttl:         defaultTTL,
		localCache:  make(map[string]*Session),
		cacheAccess: make(map[string]time.Time),
	}
}

// CreateSession creates and stores a new session for the user.
func (m *Manager) CreateSession(ctx context.Context, userID string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		History:   make([]Message, 0),
	}

	if err := m.save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.cachePut(session)

	m.logger.Info("Created new session",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
	)
	metrics.SessionsCreated.Inc()
	return session.clone(), nil
}

// GetSession retrieves a session, preferring the local cache. The returned
// session is a private copy; mutations go through AddMessage and SetPlan.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	if cached, ok := m.localCache[sessionID]; ok {
		if cached.expired() {
			m.mu.Unlock()
			_ = m.DeleteSession(ctx, sessionID)
			return nil, ErrSessionExpired
		}
		m.cacheAccess[sessionID] = time.Now()
		cp := cached.clone()
		m.mu.Unlock()
		return cp, nil
	}
	m.mu.Unlock()

	session, err := m.fetch(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.cachePut(session)
	return session.clone(), nil
}

// AddMessage appends a chat turn to the session history and persists it.
// History is capped; oldest turns fall off first.
func (m *Manager) AddMessage(ctx context.Context, sessionID, role, content string) error {
	return m.mutate(ctx, sessionID, func(session *Session) {
		session.History = append(session.History, Message{
			ID:        uuid.New().String(),
			Role:      role,
			Content:   content,
			Timestamp: time.Now(),
		})
		if len(session.History) > maxHistory {
			session.History = session.History[len(session.History)-maxHistory:]
		}
	})
}

// SetPlan attaches the most recent composite plan to the session so the
// chat side-channel can answer follow-up questions about it.
func (m *Manager) SetPlan(ctx context.Context, sessionID string, plan *orchestrator.CompositePlan) error {
	return m.mutate(ctx, sessionID, func(session *Session) {
		session.LastPlan = plan
	})
}

// DeleteSession removes a session from Redis and the local cache.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	m.mu.Lock()
	delete(m.localCache, sessionID)
	delete(m.cacheAccess, sessionID)
	metrics.SessionCacheSize.Set(float64(len(m.localCache)))
	m.mu.Unlock()
	return nil
}

// Close releases the Redis connection.
func (m *Manager) Close() error {
	return m.client.Close()
}

// Redis exposes the wrapped client for health checks.
func (m *Manager) Redis() *circuitbreaker.RedisWrapper {
	return m.client
}

// fetch loads a session from Redis, bypassing the cache.
func (m *Manager) fetch(ctx context.Context, sessionID string) (*Session, error) {
	data, err := m.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.expired() {
		_ = m.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// mutate applies fn to the authoritative session under the manager lock,
// then persists the result. Concurrent chat turns on one session serialize
// here instead of racing on a shared history slice.
func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(*Session)) error {
	m.mu.Lock()
	if session, ok := m.localCache[sessionID]; ok {
		if session.expired() {
			m.mu.Unlock()
			_ = m.DeleteSession(ctx, sessionID)
			return ErrSessionExpired
		}
		fn(session)
		session.UpdatedAt = time.Now()
		m.cacheAccess[sessionID] = time.Now()
		// Snapshot while still holding the lock; the Redis write can
		// happen outside it.
		data, err := json.Marshal(session)
		ttl := time.Until(session.ExpiresAt)
		m.mu.Unlock()
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		if ttl <= 0 {
			ttl = time.Minute
		}
		return m.client.Set(ctx, sessionKey(sessionID), data, ttl).Err()
	}
	m.mu.Unlock()

	session, err := m.fetch(ctx, sessionID)
	if err != nil {
		return err
	}
	fn(session)
	session.UpdatedAt = time.Now()
	if err := m.save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.cachePut(session)
	return nil
}

func (m *Manager) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return m.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (m *Manager) cachePut(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.localCache[session.ID] = session
	m.cacheAccess[session.ID] = time.Now()

	// LRU eviction when the cache grows past its bound.
	for len(m.localCache) > maxCachedEntries {
		oldestID := ""
		var oldest time.Time
		for id, at := range m.cacheAccess {
			if oldestID == "" || at.Before(oldest) {
				oldestID = id
				oldest = at
			}
		}
		delete(m.localCache, oldestID)
		delete(m.cacheAccess, oldestID)
		metrics.SessionCacheEvictions.Inc()
	}
	metrics.SessionCacheSize.Set(float64(len(m.localCache)))
}

func (s *Session) expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// clone returns a copy that callers can read and discard without touching
// the cached session. The plan pointer is shared; plans are immutable once
// attached.
func (s *Session) clone() *Session {
	cp := *s
	cp.History = append([]Message(nil), s.History...)
	return &cp
}

func sessionKey(id string) string {
	return "session:" + id
}

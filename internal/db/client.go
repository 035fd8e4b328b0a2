package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/circuitbreaker"
)

// Config holds database configuration.
type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	IdleConnections int           `mapstructure:"idle_connections"`
	MaxLifetime     time.Duration `mapstructure:"max_lifetime"`
}

// Client manages database connections and trip/feedback persistence. Trip
// writes go through an async queue so a slow or failing database never
// blocks returning a plan to the caller.
type Client struct {
	db     *circuitbreaker.DatabaseWrapper
	logger *zap.Logger

	writeQueue chan writeRequest
	stopCh     chan struct{}
	stopOnce   sync.Once
	workerWg   sync.WaitGroup
}

// NewClient opens a pooled connection and starts the write workers.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config.MaxConnections == 0 {
		config.MaxConnections = 25
	}
	if config.IdleConnections == 0 {
		config.IdleConnections = 5
	}
	if config.MaxLifetime == 0 {
		config.MaxLifetime = 5 * time.Minute
	}
	if config.SSLMode == "" {
		config.SSLMode = "require"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	rawDB, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rawDB.SetMaxOpenConns(config.MaxConnections)
	rawDB.SetMaxIdleConns(config.IdleConnections)
	rawDB.SetConnMaxLifetime(config.MaxLifetime)

	wrapped := circuitbreaker.NewDatabaseWrapper(rawDB, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrapped.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	client := newClient(wrapped, logger)
	logger.Info("Database client initialized",
		zap.String("host", config.Host),
		zap.Int("max_connections", config.MaxConnections),
	)
	return client, nil
}

// NewClientWithDB wraps an existing handle (tests use sqlmock here).
func NewClientWithDB(rawDB *sqlx.DB, logger *zap.Logger) *Client {
	return newClient(circuitbreaker.NewDatabaseWrapper(rawDB, logger), logger)
}

func newClient(wrapped *circuitbreaker.DatabaseWrapper, logger *zap.Logger) *Client {
	client := &Client{
		db:         wrapped,
		logger:     logger,
		writeQueue: make(chan writeRequest, 1000),
		stopCh:     make(chan struct{}),
	}
	client.startWorkers(4)
	return client
}

func (c *Client) startWorkers(n int) {
	for i := 0; i < n; i++ {
		c.workerWg.Add(1)
		go c.writeWorker()
	}
}

// Ping checks database reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB exposes the underlying sqlx handle for services that run their own
// queries.
func (c *Client) DB() *sqlx.DB {
	return c.db.DB()
}

// Wrapper exposes the circuit-breaker wrapper for health checks.
func (c *Client) Wrapper() *circuitbreaker.DatabaseWrapper {
	return c.db
}

// Close drains the write queue and closes the connection pool.
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.workerWg.Wait()
	return c.db.Close()
}

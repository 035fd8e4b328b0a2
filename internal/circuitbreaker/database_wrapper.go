package circuitbreaker

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DatabaseWrapper guards a sqlx database handle with a circuit breaker.
type DatabaseWrapper struct {
	db *sqlx.DB
	cb *CircuitBreaker
}

// NewDatabaseWrapper wraps the given database handle.
func NewDatabaseWrapper(db *sqlx.DB, logger *zap.Logger) *DatabaseWrapper {
	return &DatabaseWrapper{
		db: db,
		cb: New("postgresql", DefaultConfig(), logger),
	}
}

// PingContext wraps Ping.
func (dw *DatabaseWrapper) PingContext(ctx context.Context) error {
	return dw.cb.Execute(ctx, func() error {
		return dw.db.PingContext(ctx)
	})
}

// GetContext wraps sqlx Get (single row scan into dest). sql.ErrNoRows is
// passed through to the caller but does not count against the breaker: an
// empty result is an answer, not a dependency failure.
func (dw *DatabaseWrapper) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var getErr error
	err := dw.cb.Execute(ctx, func() error {
		getErr = dw.db.GetContext(ctx, dest, query, args...)
		if getErr == sql.ErrNoRows {
			return nil
		}
		return getErr
	})
	if err != nil {
		return err
	}
	return getErr
}

// SelectContext wraps sqlx Select (multi row scan into dest).
func (dw *DatabaseWrapper) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return dw.cb.Execute(ctx, func() error {
		return dw.db.SelectContext(ctx, dest, query, args...)
	})
}

// ExecContext wraps Exec.
func (dw *DatabaseWrapper) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := dw.cb.Execute(ctx, func() error {
		var execErr error
		result, execErr = dw.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

// NamedExecContext wraps sqlx NamedExec.
func (dw *DatabaseWrapper) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	var result sql.Result
	err := dw.cb.Execute(ctx, func() error {
		var execErr error
		result, execErr = dw.db.NamedExecContext(ctx, query, arg)
		return execErr
	})
	return result, err
}

// QueryRowContext wraps QueryRow for callers that scan manually.
func (dw *DatabaseWrapper) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	var row *sql.Row
	_ = dw.cb.Execute(ctx, func() error {
		row = dw.db.QueryRowContext(ctx, query, args...)
		return nil
	})
	return row
}

// Close closes the underlying handle.
func (dw *DatabaseWrapper) Close() error {
	return dw.db.Close()
}

// DB exposes the raw handle for callers that manage their own queries.
func (dw *DatabaseWrapper) DB() *sqlx.DB {
	return dw.db
}

// IsCircuitBreakerOpen reports whether the breaker is rejecting requests.
func (dw *DatabaseWrapper) IsCircuitBreakerOpen() bool {
	return dw.cb.State() == StateOpen
}

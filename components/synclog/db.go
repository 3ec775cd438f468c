package synclog

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// DB is the subset of *sql.DB the store relies on, so statement logging or
// tracing can be layered in without touching the store.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

type loggingDB struct {
	inner  DB
	logger *zap.Logger
}

func (d loggingDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := d.inner.ExecContext(ctx, query, args...)
	d.logger.Debug("sql exec", zap.Duration("dur", time.Since(start)), zap.String("sql", query), zap.Any("args", args), zap.Error(err))
	return res, err
}

func (d loggingDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.inner.QueryContext(ctx, query, args...)
	d.logger.Debug("sql query", zap.Duration("dur", time.Since(start)), zap.String("sql", query), zap.Any("args", args), zap.Error(err))
	return rows, err
}

func (d loggingDB) PingContext(ctx context.Context) error {
	err := d.inner.PingContext(ctx)
	d.logger.Debug("sql ping", zap.Error(err))
	return err
}

func (d loggingDB) Close() error {
	return d.inner.Close()
}

// WithSQLLogger wraps db so every statement is logged at debug level.
func WithSQLLogger(db DB, logger *zap.Logger) DB {
	if logger == nil {
		return db
	}
	return loggingDB{inner: db, logger: logger}
}

package synclog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MaxRecent caps how many records Recent returns.
const MaxRecent = 50

var (
	// ErrUnsupportedDriver is returned for drivers without a dialect.
	ErrUnsupportedDriver = errors.New("synclog: unsupported driver")
	errMissingDB         = errors.New("synclog: database not configured")
)

// Record is one persisted log line.
type Record struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Store appends log lines and lists the most recent ones.
type Store interface {
	Append(ctx context.Context, message string) (Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Option customizes a SQLStore.
type Option func(*SQLStore)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *SQLStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger enables statement logging and error reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SQLStore persists records in the sync_logs table. Records are append-only.
type SQLStore struct {
	db      DB
	dialect Dialect
	clock   func() time.Time
	logger  *zap.Logger

	mu   sync.Mutex
	last time.Time
}

// New wraps an open database handle.
func New(db DB, dialect Dialect, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.db != nil {
		s.db = WithSQLLogger(s.db, s.logger)
	}
	return s
}

// Open connects to the database, verifies the connection and creates the
// table when missing.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	raw, err := sql.Open(driverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("synclog: open %s: %w", driver, err)
	}
	if dialect.Name == sqliteDialect.Name {
		// SQLite serializes writers; one connection also keeps :memory: databases shared.
		raw.SetMaxOpenConns(1)
	}
	store := New(raw, dialect, opts...)
	if err := store.db.PingContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("synclog: ping %s: %w", driver, err)
	}
	if err := store.Migrate(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the sync_logs table if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return errMissingDB
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("synclog: migrate: %w", err)
	}
	return nil
}

// Append stores message with a server-assigned timestamp.
func (s *SQLStore) Append(ctx context.Context, message string) (Record, error) {
	if s.db == nil {
		return Record{}, errMissingDB
	}
	record := Record{Message: message, Timestamp: s.stamp()}
	query := fmt.Sprintf("INSERT INTO sync_logs (message, timestamp) VALUES (%s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	args := []any{record.Message, s.dialect.encodeTime(record.Timestamp)}

	if s.dialect.Returning {
		rows, err := s.db.QueryContext(ctx, query+" RETURNING id", args...)
		if err != nil {
			return Record{}, s.fail("append", err)
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return Record{}, s.fail("append", err)
			}
			return Record{}, s.fail("append", sql.ErrNoRows)
		}
		if err := rows.Scan(&record.ID); err != nil {
			return Record{}, s.fail("append", err)
		}
		return record, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Record{}, s.fail("append", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, s.fail("append", err)
	}
	record.ID = id
	return record, nil
}

// Recent returns up to limit records, newest first. Limits outside
// 1..MaxRecent are clamped to MaxRecent.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, errMissingDB
	}
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}
	query := fmt.Sprintf("SELECT id, message, timestamp FROM sync_logs ORDER BY timestamp DESC, id DESC LIMIT %d", limit)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.fail("recent", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			record Record
			ts     any
		)
		if err := rows.Scan(&record.ID, &record.Message, &ts); err != nil {
			return nil, s.fail("recent", err)
		}
		if record.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, s.fail("recent", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("recent", err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Microsecond precision survives every supported column type.
	now := s.clock().UTC().Truncate(time.Microsecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *SQLStore) fail(op string, err error) error {
	s.logger.Error("sync log storage failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("synclog: %s: %w", op, err)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"  // registers "postgres"
	_ "modernc.org/sqlite" // registers "sqlite"

	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultMaxParams       = 500
	pingTimeout            = 5 * time.Second
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  logger.Logger

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	maxParams       int

	queries  atomic.Int64
	sessions atomic.Int64
}

// Stats reports store usage since start.
type Stats struct {
	Driver          string `json:"driver"`
	Queries         int64  `json:"queries"`
	Sessions        int64  `json:"sessions"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

// Open connects to the entity store. For SQLite the DSN is a file path and
// the connection pragmas are appended.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if d.driver == DriverSQLite {
		dsn = SQLiteDSN(dsn)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", d.driver, ErrUnavailable, err)
	}

	s, err := New(db, d.driver, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle.
func New(db *sql.DB, driver string, opts ...Option) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{
		db:              db,
		dialect:         d,
		logger:          logger.Get().Named("store"),
		maxOpenConns:    defaultMaxOpenConns,
		maxIdleConns:    defaultMaxIdleConns,
		connMaxLifetime: defaultConnMaxLifetime,
		maxParams:       defaultMaxParams,
	}
	for _, opt := range opts {
		opt(s)
	}

	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	return s, nil
}

// Session pins one pooled connection until the session is closed.
func (s *SQLStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		metrics.RecordStoreError("session")
		metrics.RecordErrorByComponent("store", "session")
		return nil, fmt.Errorf("acquire session: %w: %w", ErrUnavailable, err)
	}
	s.sessions.Add(1)
	metrics.RecordStoreSession()
	return &sqlSession{conn: conn, store: s}, nil
}

// Ping verifies the store is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		metrics.RecordStoreError("ping")
		return fmt.Errorf("ping %s: %w: %w", s.dialect.driver, ErrUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Stats returns counters and pool state.
func (s *SQLStore) Stats() Stats {
	ps := s.db.Stats()
	return Stats{
		Driver:          s.dialect.driver,
		Queries:         s.queries.Load(),
		Sessions:        s.sessions.Load(),
		OpenConnections: ps.OpenConnections,
		InUse:           ps.InUse,
		Idle:            ps.Idle,
	}
}

package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PGPool wraps a pgx connection pool behind the package's capability
// interfaces. pgxpool has no pause primitive, so the postgres lifecycle
// carries no suspend callback and Suspend degrades to Halt.
type PGPool struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// NewPGPool wraps an existing pgx pool. The database/sql bridge handle
// is created once here: a fresh handle per call would park checked-out
// connections in its own idle set and strand them in the pgx pool.
func NewPGPool(p *pgxpool.Pool) *PGPool {
	return &PGPool{pool: p, db: stdlib.OpenDBFromPool(p)}
}

// Pool returns the underlying pgx pool.
func (p *PGPool) Pool() *pgxpool.Pool {
	return p.pool
}

// SQLDB returns the shared database/sql bridge handle. Every call
// returns the same handle; it shares the pool's connections, and
// closing it would disrupt the pool, so callers must not.
func (p *PGPool) SQLDB() *sql.DB {
	return p.db
}

// Ping validates connectivity.
func (p *PGPool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the bridge handle and the underlying pool.
func (p *PGPool) Close() error {
	err := p.db.Close()
	p.pool.Close()
	return err
}

// PostgresLifecycle returns the built-in lifecycle for PostgreSQL
// databases, backed by pgxpool with retry on startup.
func PostgresLifecycle() Lifecycle {
	return Lifecycle{
		Acquire: acquirePostgres,
	}
}

func acquirePostgres(ctx context.Context, cfg Config) (any, error) {
	connConfig, err := pgxpool.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	connConfig.MaxConns = int32(max(cfg.MaxOpenConns, 1))
	connConfig.MinConns = int32(cfg.MaxIdleConns)
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	// Linear backoff per attempt so simultaneous service restarts do
	// not hammer the database.
	var lastErr error
	attempts := max(cfg.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		conn, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = conn.Ping(ctx); err == nil {
				return NewPGPool(conn), nil
			}
			conn.Close()
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), lastErr)
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, lastErr
}

func postgresDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, port(cfg.Port, 5432), cfg.Database)
}

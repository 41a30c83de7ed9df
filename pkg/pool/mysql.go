package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Built-in driver names, also the registry keys of their lifecycles.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// SQLPool wraps a database/sql pool with a suspension gate. While
// suspended, acquisitions through DB block until the pool resumes or
// the caller's context is done. The gate only guards acquisition;
// connections already handed out are unaffected, which matches the
// coordinated-pause semantics migrations rely on.
type SQLPool struct {
	db        *sql.DB
	mu        sync.Mutex
	gate      chan struct{}
	suspended bool
}

// NewSQLPool wraps an open database/sql pool with an open gate.
func NewSQLPool(db *sql.DB) *SQLPool {
	gate := make(chan struct{})
	close(gate)
	return &SQLPool{db: db, gate: gate}
}

// DB returns the underlying pool, blocking while the gate is suspended.
func (p *SQLPool) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	gate := p.gate
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-gate:
		return p.db, nil
	}
}

// SQLDB returns the underlying pool without consulting the gate. Meant
// for administrative work such as applying migrations to a pool that
// was suspended for exactly that purpose.
func (p *SQLPool) SQLDB() *sql.DB {
	return p.db
}

// Suspend closes the gate so new acquisitions block. Idempotent.
func (p *SQLPool) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.suspended {
		return
	}
	p.suspended = true
	p.gate = make(chan struct{})
}

// Resume reopens the gate, releasing blocked acquisitions. Idempotent.
func (p *SQLPool) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.suspended {
		return
	}
	p.suspended = false
	close(p.gate)
}

// Ping validates connectivity regardless of gate state.
func (p *SQLPool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (p *SQLPool) Close() error {
	return p.db.Close()
}

// MySQLLifecycle returns the built-in lifecycle for MySQL databases:
// a database/sql pool behind a suspension gate, with retry on startup.
// The data source resumes in place, so a no-op config change at resume
// time keeps the same pool instance.
func MySQLLifecycle() Lifecycle {
	return Lifecycle{
		Acquire: acquireMySQL,
		Suspend: func(_ context.Context, ds any) (any, error) {
			p, ok := ds.(*SQLPool)
			if !ok {
				return nil, fmt.Errorf("pool: mysql suspend: unexpected datasource %T", ds)
			}
			p.Suspend()
			return p, nil
		},
		Resume: func(_ context.Context, ds any) (any, error) {
			p, ok := ds.(*SQLPool)
			if !ok {
				return nil, fmt.Errorf("pool: mysql resume: unexpected datasource %T", ds)
			}
			p.Resume()
			return p, nil
		},
	}
}

func acquireMySQL(ctx context.Context, cfg Config) (any, error) {
	dsn, err := mysqlDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	// Linear backoff per attempt, same shape as the postgres path.
	attempts := max(cfg.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return NewSQLPool(db), nil
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, errors.Join(ctx.Err(), err)
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	_ = db.Close()
	return nil, err
}

// mysqlDSN builds the connection string. An explicit DSN wins; discrete
// fields otherwise assemble one through the driver's own config type.
func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
			return "", err
		}
		return cfg.DSN, nil
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port(cfg.Port, 3306))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

func port(p, fallback int) int {
	if p > 0 {
		return p
	}
	return fallback
}

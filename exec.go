package dbkit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dbkit-go/dbkit/pkg/pool"
)

// Execer is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a statement that does not return rows.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any
// wrapper that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// db resolves the live datasource behind key to a database/sql handle.
// The mysql datasource is acquired through its gate, so calls block
// while the pool is suspended; other datasources are used through their
// ungated sql bridge.
func (s *Service) db(ctx context.Context, key string) (*sql.DB, error) {
	ds, err := s.pools.Acquire(key)
	if err != nil {
		if errors.Is(err, pool.ErrUnknownDatabase) {
			return nil, errors.Join(ErrUnknownDatabase, err)
		}
		return nil, err
	}

	switch d := ds.(type) {
	case *pool.SQLPool:
		return d.DB(ctx)
	case interface{ SQLDB() *sql.DB }:
		return d.SQLDB(), nil
	default:
		return nil, ErrUnsupportedDatasource
	}
}

// Exec interpolates template with subs, marshals the parameter stream
// through the coercion registry, and executes the statement against the
// pool behind key. Placeholders bind in the marshaled order, which
// preserves the input order.
func (s *Service) Exec(ctx context.Context, key, template string, subs Subs, items ...any) (sql.Result, error) {
	db, err := s.db(ctx, key)
	if err != nil {
		return nil, err
	}
	args, err := s.Marshal(items...)
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, s.Build(template, subs), args...)
}

// Query runs a row-returning statement the same way Exec runs a
// non-returning one. The caller owns the returned rows.
func (s *Service) Query(ctx context.Context, key, template string, subs Subs, items ...any) (*sql.Rows, error) {
	db, err := s.db(ctx, key)
	if err != nil {
		return nil, err
	}
	args, err := s.Marshal(items...)
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, s.Build(template, subs), args...)
}

// QueryMaps runs a query and scans every row into a column-keyed map,
// applying the outbound coercers registered for table. Meant for the
// call sites that want coerced application values without hand-written
// scanning.
func (s *Service) QueryMaps(ctx context.Context, key, table, template string, subs Subs, items ...any) ([]map[string]any, error) {
	rows, err := s.Query(ctx, key, template, subs, items...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			coerced, err := s.registry.Out(table, col, values[i])
			if err != nil {
				return nil, err
			}
			row[col] = coerced
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// WithTx executes fn within a transaction on the pool behind key. An
// error from fn rolls the transaction back; a panic rolls back and
// re-raises; otherwise the transaction commits.
func (s *Service) WithTx(ctx context.Context, key string, fn func(tx *sql.Tx) error) error {
	db, err := s.db(ctx, key)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

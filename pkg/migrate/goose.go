package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/dbkit-go/dbkit/pkg/pool"
)

// GooseMigrator is the default Migrator, backed by pressly/goose.
type GooseMigrator struct {
	log *slog.Logger
}

// NewGooseMigrator creates the default goose-backed migration engine.
func NewGooseMigrator() *GooseMigrator {
	return &GooseMigrator{log: slog.Default()}
}

// Up applies every pending migration in the set.
func (g *GooseMigrator) Up(ctx context.Context, db *sql.DB, set Set) error {
	if err := g.configure(set); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, set.dir())
}

// Down rolls back to a target version when one is given, otherwise one
// step at a time, repeated Steps times.
func (g *GooseMigrator) Down(ctx context.Context, db *sql.DB, set Set, spec RollbackSpec) error {
	if err := g.configure(set); err != nil {
		return err
	}
	if spec.Version > 0 {
		return goose.DownToContext(ctx, db, set.dir(), spec.Version)
	}
	steps := max(spec.Steps, 1)
	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, db, set.dir()); err != nil {
			return err
		}
	}
	return nil
}

func (g *GooseMigrator) configure(set Set) error {
	goose.SetBaseFS(set.FS)
	goose.SetTableName(set.table())
	goose.SetLogger(&gooseLoggerAdapter{log: g.log})
	if err := goose.SetDialect(set.Dialect); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	return nil
}

// EnsureDatabase issues the database-creation pre-check: connect at
// server level and create the target database when it does not exist.
func (g *GooseMigrator) EnsureDatabase(ctx context.Context, cfg pool.Config) error {
	if cfg.Database == "" {
		return nil
	}
	if strings.ContainsAny(cfg.Database, "`\"'") {
		return fmt.Errorf("invalid database name %q", cfg.Database)
	}

	switch cfg.Driver {
	case pool.DriverMySQL:
		return g.ensureMySQL(ctx, cfg)
	case pool.DriverPostgres:
		return g.ensurePostgres(ctx, cfg)
	default:
		// Unknown drivers bring their own provisioning.
		return nil
	}
}

func (g *GooseMigrator) ensureMySQL(ctx context.Context, cfg pool.Config) error {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, portOr(cfg.Port, 3306))

	db, err := sql.Open(pool.DriverMySQL, mc.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS `"+cfg.Database+"`")
	return err
}

func (g *GooseMigrator) ensurePostgres(ctx context.Context, cfg pool.Config) error {
	// Connect to the maintenance database; the target may not exist yet.
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/postgres",
		cfg.User, cfg.Password, cfg.Host, portOr(cfg.Port, 5432))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.ExecContext(ctx, `CREATE DATABASE "`+cfg.Database+`"`)
	return err
}

func portOr(p, fallback int) int {
	if p > 0 {
		return p
	}
	return fallback
}

// gooseLoggerAdapter bridges goose's logger to slog.
type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (a *gooseLoggerAdapter) Printf(format string, args ...any) {
	a.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Fatalf logs at error level only; goose returns an error that
// propagates, and exiting here would skip shutdown.
func (a *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	a.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

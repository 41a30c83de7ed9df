package migrate

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/dbkit-go/dbkit/pkg/pool"
)

// Set describes one ordered migration set.
type Set struct {
	// FS is the migration-set source; the file format inside it is
	// owned by the migration engine, not this package.
	FS fs.FS
	// Dir is the path within FS, "." when empty.
	Dir string
	// Table is the bookkeeping table, "schema_migrations" when empty.
	Table string
	// Dialect overrides the dialect derived from the pool driver.
	Dialect string
}

func (s Set) dir() string {
	if s.Dir == "" {
		return "."
	}
	return s.Dir
}

func (s Set) table() string {
	if s.Table == "" {
		return "schema_migrations"
	}
	return s.Table
}

// RollbackSpec selects how far a rollback goes. The zero value rolls
// back one migration; Steps rolls back a count; Version rolls back to a
// specific migration identifier. Version wins when both are set.
type RollbackSpec struct {
	Steps   int
	Version int64
}

// Migrator executes migration sets against a live database handle.
type Migrator interface {
	// EnsureDatabase creates the target database when it does not yet
	// exist.
	EnsureDatabase(ctx context.Context, cfg pool.Config) error
	// Up applies every pending migration in the set.
	Up(ctx context.Context, db *sql.DB, set Set) error
	// Down rolls back to a target version or by a number of steps.
	Down(ctx context.Context, db *sql.DB, set Set, spec RollbackSpec) error
}

// Event describes one apply or rollback outcome. RunID groups the
// events of a single runner invocation.
type Event struct {
	RunID     uuid.UUID
	Key       string
	Direction string // "up" or "down"
	Err       error
}

// Reporter receives migration events.
type Reporter func(Event)

// sqlProvider is the capability a datasource needs for migrations to
// run against it. Both built-in pool datasources implement it.
type sqlProvider interface {
	SQLDB() *sql.DB
}

// Runner drives migrations across the configured logical databases.
type Runner struct {
	manager  *pool.Manager
	configs  map[string]pool.Config
	sets     map[string]Set
	migrator Migrator
	reporter Reporter
	log      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMigrator substitutes the migration engine. Default: goose.
func WithMigrator(m Migrator) Option {
	return func(r *Runner) {
		if m != nil {
			r.migrator = m
		}
	}
}

// WithReporter sets the event callback. Default: slog at info level.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner over a pool manager, one configuration and
// one migration set per logical database key.
func NewRunner(manager *pool.Manager, configs map[string]pool.Config, sets map[string]Set, opts ...Option) *Runner {
	r := &Runner{
		manager:  manager,
		configs:  configs,
		sets:     sets,
		migrator: NewGooseMigrator(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = func(e Event) {
			if e.Err != nil {
				r.log.Error("migration failed",
					slog.String("run_id", e.RunID.String()),
					slog.String("key", e.Key),
					slog.String("direction", e.Direction),
					slog.String("error", e.Err.Error()))
				return
			}
			r.log.Info("migration applied",
				slog.String("run_id", e.RunID.String()),
				slog.String("key", e.Key),
				slog.String("direction", e.Direction))
		}
	}
	return r
}

// Snapshot is the set of logical databases active at one point in time.
type Snapshot map[string]struct{}

// snapshot records which keys currently have an active pool.
func (r *Runner) snapshot() Snapshot {
	snap := make(Snapshot)
	for _, key := range r.manager.ActiveKeys() {
		snap[key] = struct{}{}
	}
	return snap
}

// stopKeys computes post minus pre: the keys this run started itself.
func stopKeys(pre, post Snapshot) []string {
	var keys []string
	for key := range post {
		if _, was := pre[key]; !was {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Up applies the migration sets for the given keys, or for every
// configured key when none are named. Databases that were not up before
// the call are started for the run and stopped afterwards; databases
// already up are left running. A migration failure propagates
// immediately, skipping the stop phase.
func (r *Runner) Up(ctx context.Context, keys ...string) error {
	return r.run(ctx, "up", keys, func(ctx context.Context, db *sql.DB, set Set) error {
		if err := r.migrator.Up(ctx, db, set); err != nil {
			return errors.Join(ErrApplyMigrations, err)
		}
		return nil
	})
}

// Rollback rolls back one key's migration set by the given steps or
// target version.
func (r *Runner) Rollback(ctx context.Context, key string, spec RollbackSpec) error {
	return r.run(ctx, "down", []string{key}, func(ctx context.Context, db *sql.DB, set Set) error {
		if err := r.migrator.Down(ctx, db, set, spec); err != nil {
			return errors.Join(ErrRollback, err)
		}
		return nil
	})
}

func (r *Runner) run(ctx context.Context, direction string, keys []string, apply func(context.Context, *sql.DB, Set) error) error {
	if len(keys) == 0 {
		keys = make([]string, 0, len(r.sets))
		for key := range r.sets {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	runID := uuid.New()
	pre := r.snapshot()

	for _, key := range keys {
		if err := r.runOne(ctx, key, apply); err != nil {
			r.reporter(Event{RunID: runID, Key: key, Direction: direction, Err: err})
			return err
		}
		r.reporter(Event{RunID: runID, Key: key, Direction: direction})
	}

	// Stop exactly what this run started. Unreached on failure above,
	// matching the propagate-first contract.
	for _, key := range stopKeys(pre, r.snapshot()) {
		if err := r.manager.Halt(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, key string, apply func(context.Context, *sql.DB, Set) error) error {
	set, ok := r.sets[key]
	if !ok {
		return errors.Join(ErrNoMigrationSet, errors.New("key "+key))
	}
	cfg, ok := r.configs[key]
	if !ok {
		return errors.Join(ErrNoConfig, errors.New("key "+key))
	}
	// Normalize so the provisioning pre-check sees the same aliased
	// credentials and defaults the pool will.
	cfg = pool.Prepare(cfg)
	if set.Dialect == "" {
		set.Dialect = cfg.Driver
	}

	if err := r.migrator.EnsureDatabase(ctx, cfg); err != nil {
		return errors.Join(ErrEnsureDatabase, err)
	}

	rec, err := r.ensureUp(ctx, key, cfg)
	if err != nil {
		return err
	}

	provider, ok := rec.Datasource.(sqlProvider)
	if !ok {
		return ErrNoSQLDatasource
	}
	return apply(ctx, provider.SQLDB(), set)
}

// ensureUp returns the live record for key, initializing the pool when
// the key is neither active nor suspended. A suspended pool stays
// suspended: migrations reach it through the ungated sql handle, which
// is the point of the coordinated pause.
func (r *Runner) ensureUp(ctx context.Context, key string, cfg pool.Config) (*pool.DBConfig, error) {
	switch r.manager.State(key) {
	case pool.StateActive, pool.StateSuspended:
		return r.manager.Get(key)
	default:
		return r.manager.Init(ctx, key, cfg)
	}
}

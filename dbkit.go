package dbkit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dbkit-go/dbkit/pkg/coerce"
	"github.com/dbkit-go/dbkit/pkg/migrate"
	"github.com/dbkit-go/dbkit/pkg/params"
	"github.com/dbkit-go/dbkit/pkg/pool"
	"github.com/dbkit-go/dbkit/pkg/qtpl"
)

// Convenience aliases so callers composing queries only import dbkit.
type (
	// Subs is a template substitution map.
	Subs = map[string]string
	// Table scopes following parameter values to a table.
	Table = params.Table
	// Col scopes the next parameter value to a column.
	Col = params.Col
	// Key scopes the next parameter value to a table/column pair.
	Key = params.Key
	// Sym is a symbolic parameter value.
	Sym = params.Sym
	// Group nests a parameter sequence.
	Group = params.Group
)

// Service owns the database layer: coercion registry, query builder,
// pool manager, and migration runner. Construct it once at startup and
// pass it by reference; Close releases everything it started.
type Service struct {
	registry *coerce.Registry
	builder  *qtpl.Builder
	pools    *pool.Manager
	runner   *migrate.Runner
	configs  map[string]pool.Config
	log      *slog.Logger
}

// New wires a Service from the given options.
func New(opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	registry := o.registry
	if registry == nil {
		registry = coerce.NewRegistry(coerce.WithLogger(o.log))
	}

	pools := pool.NewManager(pool.WithLogger(o.log))
	for name, lc := range o.lifecycles {
		pools.RegisterLifecycle(name, lc)
	}

	for key := range o.sets {
		if _, ok := o.configs[key]; !ok {
			return nil, errors.Join(ErrUnknownDatabase, errors.New("migration set for unconfigured key "+key))
		}
	}

	svc := &Service{
		registry: registry,
		builder: qtpl.New(
			qtpl.WithStaticCacheSize(o.staticCacheSize),
			qtpl.WithDynamicCacheSize(o.dynamicCacheSize),
		),
		pools:   pools,
		configs: o.configs,
		log:     o.log,
	}
	svc.runner = migrate.NewRunner(pools, o.configs, o.sets, migrate.WithLogger(o.log))
	return svc, nil
}

// Registry returns the coercion registry for coercer registration.
func (s *Service) Registry() *coerce.Registry { return s.registry }

// Builder returns the query template builder.
func (s *Service) Builder() *qtpl.Builder { return s.builder }

// Pools returns the pool manager.
func (s *Service) Pools() *pool.Manager { return s.pools }

// Migrations returns the migration runner.
func (s *Service) Migrations() *migrate.Runner { return s.runner }

// Init brings up every configured database.
func (s *Service) Init(ctx context.Context) error {
	for key, cfg := range s.configs {
		if _, err := s.pools.Init(ctx, key, cfg); err != nil {
			return err
		}
	}
	return nil
}

// Close halts every pool and releases the builder caches. The first
// error is reported after everything was attempted.
func (s *Service) Close() error {
	err := s.pools.CloseAll(context.Background())
	if cerr := s.builder.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Build interpolates a query template through the static cache.
func (s *Service) Build(template string, subs Subs) string {
	return s.builder.Build(template, subs)
}

// BuildDynamic interpolates a generated query template through the
// larger dynamic cache.
func (s *Service) BuildDynamic(template string, subs Subs) string {
	return s.builder.BuildDynamic(template, subs)
}

// Marshal coerces a parameter stream against the service registry.
func (s *Service) Marshal(items ...any) ([]any, error) {
	return params.Marshal(s.registry, items...)
}

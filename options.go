package dbkit

import (
	"log/slog"

	"github.com/dbkit-go/dbkit/pkg/coerce"
	"github.com/dbkit-go/dbkit/pkg/logger"
	"github.com/dbkit-go/dbkit/pkg/migrate"
	"github.com/dbkit-go/dbkit/pkg/pool"
	"github.com/dbkit-go/dbkit/pkg/qtpl"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	log              *slog.Logger
	registry         *coerce.Registry
	configs          map[string]pool.Config
	sets             map[string]migrate.Set
	lifecycles       map[string]pool.Lifecycle
	staticCacheSize  int
	dynamicCacheSize int
}

func defaultOptions() *options {
	return &options{
		log:              logger.New(),
		configs:          make(map[string]pool.Config),
		sets:             make(map[string]migrate.Set),
		lifecycles:       make(map[string]pool.Lifecycle),
		staticCacheSize:  qtpl.DefaultStaticCacheSize,
		dynamicCacheSize: qtpl.DefaultDynamicCacheSize,
	}
}

// WithLogger sets the logger for operational events across the layer.
// Default: logger.New(), a JSON logger on stdout.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSentry replaces the default logger with one that additionally
// forwards warnings and errors to Sentry. With an empty DSN it behaves
// like the default logger.
func WithSentry(cfg logger.SentryConfig) Option {
	return func(o *options) {
		o.log = logger.NewWithSentry(cfg)
	}
}

// WithRegistry substitutes a pre-populated coercion registry.
func WithRegistry(reg *coerce.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithDatabases sets the logical database configurations, keyed by
// database key. Use pool.LoadConfigs to read them from a YAML file.
func WithDatabases(configs map[string]pool.Config) Option {
	return func(o *options) {
		for key, cfg := range configs {
			o.configs[key] = cfg
		}
	}
}

// WithMigrations sets the migration sets, keyed by database key. Every
// key must also appear in the database configurations.
func WithMigrations(sets map[string]migrate.Set) Option {
	return func(o *options) {
		for key, set := range sets {
			o.sets[key] = set
		}
	}
}

// WithLifecycle registers a named pool lifecycle for configurations to
// reference.
func WithLifecycle(name string, lc pool.Lifecycle) Option {
	return func(o *options) {
		o.lifecycles[name] = lc
	}
}

// WithStaticCacheSize bounds the query builder's static cache.
// Default: qtpl.DefaultStaticCacheSize.
func WithStaticCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.staticCacheSize = n
		}
	}
}

// WithDynamicCacheSize bounds the query builder's dynamic cache.
// Default: qtpl.DefaultDynamicCacheSize.
func WithDynamicCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.dynamicCacheSize = n
		}
	}
}

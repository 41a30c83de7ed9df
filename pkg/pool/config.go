package pool

import (
	"context"
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AcquireFunc opens a pooled data source for a configuration.
type AcquireFunc func(ctx context.Context, cfg Config) (any, error)

// CloseFunc releases a data source.
type CloseFunc func(ctx context.Context, ds any) error

// SuspendFunc pauses a data source pool-side and returns the handle to
// carry in the replacement record, usually the same instance.
type SuspendFunc func(ctx context.Context, ds any) (any, error)

// ResumeFunc reopens a suspended data source in place.
type ResumeFunc func(ctx context.Context, ds any) (any, error)

// Lifecycle bundles the four callbacks that manage a data source.
// Close falls back to the generic Closer-based close when nil. Suspend
// may be nil, in which case Suspend degrades to Halt.
type Lifecycle struct {
	Acquire AcquireFunc
	Close   CloseFunc
	Suspend SuspendFunc
	Resume  ResumeFunc
}

// Config describes one logical database. The connection and migration
// fields are plain data and participate in the structural equality check
// used at resume time; the Lifecycle field and the named callback
// references do not.
type Config struct {
	Key  string `yaml:"key" env:"DATABASE_KEY"`
	Name string `yaml:"name" env:"DATABASE_NAME"`

	// Driver selects the built-in lifecycle when no initializer is
	// named: "mysql" or "postgres".
	Driver string `yaml:"driver" env:"DATABASE_DRIVER" envDefault:"mysql"`

	// DSN wins over the discrete connection fields when set.
	DSN      string `yaml:"dsn" env:"DATABASE_DSN"`
	Host     string `yaml:"host" env:"DATABASE_HOST" envDefault:"localhost"`
	Port     int    `yaml:"port" env:"DATABASE_PORT"`
	User     string `yaml:"user" env:"DATABASE_USER"`
	Username string `yaml:"username" env:"DATABASE_USERNAME"`
	Password string `yaml:"password" env:"DATABASE_PASSWORD"`
	Database string `yaml:"database" env:"DATABASE_NAME"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	RetryAttempts   int           `yaml:"retry_attempts" env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `yaml:"retry_interval" env:"DATABASE_RETRY_INTERVAL" envDefault:"5s"`

	MigrationsDir   string `yaml:"migrations_dir" env:"DATABASE_MIGRATIONS_DIR"`
	MigrationsTable string `yaml:"migrations_table" env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`

	// Named callback references resolved against the Manager's
	// lifecycle registry. Empty references fall back to the Driver's
	// built-in lifecycle.
	Initializer string `yaml:"initializer"`
	Finalizer   string `yaml:"finalizer"`
	Suspender   string `yaml:"suspender"`
	Resumer     string `yaml:"resumer"`

	// Migration collaborator references, carried for the migration
	// runner: loader resolves the migration set source, strategy the
	// rollback behavior, reporter the event callback.
	Loader   string `yaml:"loader"`
	Strategy string `yaml:"strategy"`
	Reporter string `yaml:"reporter"`

	// Lifecycle overrides the named references when set directly.
	Lifecycle *Lifecycle `yaml:"-"`
}

// configData is the comparable projection of Config used for the resume
// equality check. Lifecycle callbacks are functions, not data; a config
// reload must not force a pool teardown merely because the maps were
// re-read.
type configData struct {
	key, name, driver, dsn              string
	host, user, username, password, db  string
	port, maxOpen, maxIdle              int
	maxLifetime, maxIdleTime            time.Duration
	retryAttempts                       int
	retryInterval                       time.Duration
	migrationsDir, migrationsTable      string
	loader, strategy, reporter          string
}

func (c Config) data() configData {
	return configData{
		key: c.Key, name: c.Name, driver: c.Driver, dsn: c.DSN,
		host: c.Host, user: c.User, username: c.Username,
		password: c.Password, db: c.Database,
		port: c.Port, maxOpen: c.MaxOpenConns, maxIdle: c.MaxIdleConns,
		maxLifetime: c.MaxConnLifetime, maxIdleTime: c.MaxConnIdleTime,
		retryAttempts: c.RetryAttempts, retryInterval: c.RetryInterval,
		migrationsDir: c.MigrationsDir, migrationsTable: c.MigrationsTable,
		loader: c.Loader, strategy: c.Strategy, reporter: c.Reporter,
	}
}

// EqualData reports whether two configurations carry the same data
// fields, ignoring lifecycle callbacks.
func (c Config) EqualData(o Config) bool {
	return c.data() == o.data()
}

// Prepare normalizes a configuration: user/username aliasing (whichever
// is present populates the other), defaulting, and ${VAR} expansion of
// the migrations directory for environment-specific overrides.
func Prepare(cfg Config) Config {
	switch {
	case cfg.User == "" && cfg.Username != "":
		cfg.User = cfg.Username
	case cfg.Username == "" && cfg.User != "":
		cfg.Username = cfg.User
	}

	if cfg.Driver == "" {
		cfg.Driver = DriverMySQL
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Key
	}
	if cfg.MigrationsDir != "" {
		cfg.MigrationsDir = os.Expand(cfg.MigrationsDir, os.Getenv)
	}
	return cfg
}

// rawConfig mirrors Config for YAML decoding, with durations as
// strings so "30m" style values work.
type rawConfig struct {
	Name            string `yaml:"name"`
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxConnLifetime string `yaml:"max_conn_lifetime"`
	MaxConnIdleTime string `yaml:"max_conn_idle_time"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RetryInterval   string `yaml:"retry_interval"`
	MigrationsDir   string `yaml:"migrations_dir"`
	MigrationsTable string `yaml:"migrations_table"`
	Initializer     string `yaml:"initializer"`
	Finalizer       string `yaml:"finalizer"`
	Suspender       string `yaml:"suspender"`
	Resumer         string `yaml:"resumer"`
	Loader          string `yaml:"loader"`
	Strategy        string `yaml:"strategy"`
	Reporter        string `yaml:"reporter"`
}

func (r rawConfig) config() (Config, error) {
	cfg := Config{
		Name: r.Name, Driver: r.Driver, DSN: r.DSN,
		Host: r.Host, Port: r.Port,
		User: r.User, Username: r.Username, Password: r.Password,
		Database:        r.Database,
		MaxOpenConns:    r.MaxOpenConns,
		MaxIdleConns:    r.MaxIdleConns,
		RetryAttempts:   r.RetryAttempts,
		MigrationsDir:   r.MigrationsDir,
		MigrationsTable: r.MigrationsTable,
		Initializer:     r.Initializer, Finalizer: r.Finalizer,
		Suspender: r.Suspender, Resumer: r.Resumer,
		Loader: r.Loader, Strategy: r.Strategy, Reporter: r.Reporter,
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{r.MaxConnLifetime, &cfg.MaxConnLifetime},
		{r.MaxConnIdleTime, &cfg.MaxConnIdleTime},
		{r.RetryInterval, &cfg.RetryInterval},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, err
		}
		*d.dst = parsed
	}
	return cfg, nil
}

// LoadConfigs reads a multi-database YAML configuration file keyed by
// logical database key. Each entry is normalized through Prepare and
// has its Key populated from the map key.
func LoadConfigs(path string) (map[string]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	var parsed map[string]rawConfig
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	out := make(map[string]Config, len(parsed))
	for key, entry := range parsed {
		cfg, err := entry.config()
		if err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
		cfg.Key = key
		out[key] = Prepare(cfg)
	}
	return out, nil
}

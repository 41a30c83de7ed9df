package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// State is the lifecycle state of one logical database key.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateSuspended
	StateClosed
)

// String returns the state label used in logs.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Manager owns the DBConfig records and lifecycle state for every
// configured logical database. It is the process-wide named reference
// to the live data sources, constructed explicitly and passed by
// reference instead of living in package globals. Safe for concurrent
// use.
type Manager struct {
	mu         sync.RWMutex
	records    map[string]*DBConfig
	states     map[string]State
	lifecycles map[string]Lifecycle
	log        *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for lifecycle transition events.
// Default: slog.Default().
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a Manager with the built-in mysql and postgres
// lifecycles registered.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		records: make(map[string]*DBConfig),
		states:  make(map[string]State),
		lifecycles: map[string]Lifecycle{
			DriverMySQL:    MySQLLifecycle(),
			DriverPostgres: PostgresLifecycle(),
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterLifecycle adds a named lifecycle for configurations to
// reference through their initializer/finalizer/suspender/resumer keys.
func (m *Manager) RegisterLifecycle(name string, lc Lifecycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycles[name] = lc
}

// resolveLifecycle assembles the effective lifecycle for a config:
// a directly injected Lifecycle wins; otherwise named references are
// resolved per callback, falling back to the driver's built-in
// lifecycle. An unresolvable name is a configuration error.
func (m *Manager) resolveLifecycle(cfg Config) (Lifecycle, error) {
	if cfg.Lifecycle != nil {
		return *cfg.Lifecycle, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	base, ok := m.lifecycles[cfg.Driver]
	if !ok {
		return Lifecycle{}, errors.Join(ErrUnresolvedCallback, errors.New("driver "+cfg.Driver))
	}

	lc := base
	for _, ref := range []struct {
		name  string
		apply func(Lifecycle)
	}{
		{cfg.Initializer, func(src Lifecycle) { lc.Acquire = src.Acquire }},
		{cfg.Finalizer, func(src Lifecycle) { lc.Close = src.Close }},
		{cfg.Suspender, func(src Lifecycle) { lc.Suspend = src.Suspend }},
		{cfg.Resumer, func(src Lifecycle) { lc.Resume = src.Resume }},
	} {
		if ref.name == "" {
			continue
		}
		src, ok := m.lifecycles[ref.name]
		if !ok {
			return Lifecycle{}, errors.Join(ErrUnresolvedCallback, errors.New("callback "+ref.name))
		}
		ref.apply(src)
	}
	return lc, nil
}

// Init acquires a pooled data source for key, validates connectivity
// with one throwaway ping, and activates the key. The returned record
// is read-only.
func (m *Manager) Init(ctx context.Context, key string, cfg Config) (*DBConfig, error) {
	cfg = Prepare(cfg)
	if cfg.Key == "" {
		cfg.Key = key
	}

	m.mu.RLock()
	state := m.states[key]
	m.mu.RUnlock()
	if state == StateActive || state == StateSuspended {
		return nil, errors.Join(ErrAlreadyInitialized, errors.New("key "+key))
	}

	lc, err := m.resolveLifecycle(cfg)
	if err != nil {
		return nil, err
	}
	if lc.Acquire == nil {
		return nil, errors.Join(ErrUnresolvedCallback, errors.New("no acquire callback for key "+key))
	}

	ds, err := lc.Acquire(ctx, cfg)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, err)
	}

	// Throwaway connectivity check; the connection goes straight back
	// to the pool.
	if p, ok := ds.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			if c, ok := ds.(Closer); ok {
				_ = c.Close()
			}
			return nil, errors.Join(ErrFailedToConnect, err)
		}
	}

	rec := &DBConfig{
		Key:        cfg.Key,
		Name:       cfg.Name,
		Config:     cfg,
		Datasource: ds,
		lifecycle:  lc,
	}

	m.mu.Lock()
	m.records[key] = rec
	m.states[key] = StateActive
	m.mu.Unlock()

	m.log.Info("database pool initialized",
		slog.String("key", key), slog.String("name", cfg.Name))
	return rec, nil
}

// Get returns the current record for key.
func (m *Manager) Get(key string) (*DBConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrUnknownDatabase
	}
	if m.states[key] == StateClosed {
		return nil, ErrPoolClosed
	}
	return rec, nil
}

// Acquire returns the live data source for an active key. Suspended
// keys report ErrPoolSuspended; the built-in mysql gate additionally
// blocks in-flight acquisitions made through the datasource itself.
func (m *Manager) Acquire(key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrUnknownDatabase
	}
	switch m.states[key] {
	case StateClosed:
		return nil, ErrPoolClosed
	case StateSuspended:
		return nil, ErrPoolSuspended
	}
	return rec.Datasource, nil
}

// State reports the lifecycle state of a key.
func (m *Manager) State(key string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[key]
}

// Keys lists every key the manager has seen, in no particular order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		keys = append(keys, key)
	}
	return keys
}

// ActiveKeys lists the keys currently in the active state.
func (m *Manager) ActiveKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for key, state := range m.states {
		if state == StateActive {
			keys = append(keys, key)
		}
	}
	return keys
}

// Suspend pauses the pool behind key. With a suspend callback the pool
// stops accepting new connections and the key parks in the suspended
// state, ready for an in-place resume; without one the operation
// degrades to a full Halt.
func (m *Manager) Suspend(ctx context.Context, key string) (*DBConfig, error) {
	m.mu.RLock()
	rec, ok := m.records[key]
	state := m.states[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownDatabase
	}
	if state == StateClosed {
		return nil, ErrPoolClosed
	}

	if rec.lifecycle.Suspend == nil {
		m.log.Info("no suspend callback, halting pool",
			slog.String("key", key), slog.String("name", rec.Name))
		return nil, m.Halt(ctx, key)
	}

	ds, err := rec.lifecycle.Suspend(ctx, rec.Datasource)
	if err != nil {
		return nil, err
	}

	next := *rec
	next.Datasource = ds

	m.mu.Lock()
	m.records[key] = &next
	m.states[key] = StateSuspended
	m.mu.Unlock()

	m.log.Info("database pool suspended",
		slog.String("key", key), slog.String("name", rec.Name))
	return &next, nil
}

// Resume brings a suspended key back to active. When the new
// configuration is structurally equal to the old one and a resume
// callback exists, the existing pool resumes in place and the data
// source instance is reused; any data-bearing config change instead
// halts the old pool and initializes a fresh one. The asymmetry is
// intentional: a config reload must not tear a pool down when nothing
// but callback wiring differs.
func (m *Manager) Resume(ctx context.Context, key string, cfg Config) (*DBConfig, error) {
	m.mu.RLock()
	old, ok := m.records[key]
	state := m.states[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownDatabase
	}
	if state == StateClosed {
		return nil, ErrPoolClosed
	}

	cfg = Prepare(cfg)
	if cfg.Key == "" {
		cfg.Key = key
	}

	if old.lifecycle.Resume != nil && cfg.EqualData(old.Config) {
		ds, err := old.lifecycle.Resume(ctx, old.Datasource)
		if err != nil {
			return nil, err
		}

		next := *old
		next.Datasource = ds

		m.mu.Lock()
		m.records[key] = &next
		m.states[key] = StateActive
		m.mu.Unlock()

		m.log.Info("database pool resumed",
			slog.String("key", key), slog.String("name", next.Name))
		return &next, nil
	}

	m.log.Info("configuration changed, reinitializing pool",
		slog.String("key", key), slog.String("name", old.Name))
	if err := m.Halt(ctx, key); err != nil {
		return nil, err
	}
	return m.Init(ctx, key, cfg)
}

// Halt closes the pool behind key and marks it closed. Closed is
// terminal for the record; a later Init starts a fresh generation.
func (m *Manager) Halt(ctx context.Context, key string) error {
	m.mu.RLock()
	rec, ok := m.records[key]
	state := m.states[key]
	m.mu.RUnlock()

	if !ok {
		return ErrUnknownDatabase
	}
	if state == StateClosed {
		return nil
	}

	err := rec.close(ctx)

	m.mu.Lock()
	m.states[key] = StateClosed
	m.mu.Unlock()

	m.log.Info("database pool halted",
		slog.String("key", key), slog.String("name", rec.Name))
	return err
}

// CloseAll halts every key that is not already closed. The first error
// is reported after all keys were attempted.
func (m *Manager) CloseAll(ctx context.Context) error {
	var first error
	for _, key := range m.Keys() {
		if m.State(key) == StateClosed {
			continue
		}
		if err := m.Halt(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Healthcheck returns a probe for key suitable for readiness endpoints.
func Healthcheck(m *Manager, key string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		rec, err := m.Get(key)
		if err != nil {
			return err
		}
		if p, ok := rec.Datasource.(Pinger); ok {
			return p.Ping(ctx)
		}
		return nil
	}
}

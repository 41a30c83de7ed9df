package pool_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbkit/pkg/pool"
)

// fakeDS is a datasource standing in for a live pool.
type fakeDS struct {
	pings     atomic.Int64
	closed    atomic.Bool
	suspended atomic.Bool
}

func (f *fakeDS) Ping(context.Context) error { f.pings.Add(1); return nil }
func (f *fakeDS) Close() error               { f.closed.Store(true); return nil }

// fakeLifecycle acquires fresh fakeDS instances and suspends/resumes in
// place, mirroring the built-in mysql lifecycle's shape.
func fakeLifecycle(acquired *[]*fakeDS) *pool.Lifecycle {
	return &pool.Lifecycle{
		Acquire: func(context.Context, pool.Config) (any, error) {
			ds := &fakeDS{}
			*acquired = append(*acquired, ds)
			return ds, nil
		},
		Suspend: func(_ context.Context, ds any) (any, error) {
			ds.(*fakeDS).suspended.Store(true)
			return ds, nil
		},
		Resume: func(_ context.Context, ds any) (any, error) {
			ds.(*fakeDS).suspended.Store(false)
			return ds, nil
		},
	}
}

func testConfig(lc *pool.Lifecycle) pool.Config {
	return pool.Config{
		Key:       "main",
		Name:      "Main DB",
		Driver:    pool.DriverMySQL,
		Database:  "app",
		User:      "app",
		Lifecycle: lc,
	}
}

func TestManager_Init(t *testing.T) {
	t.Parallel()

	t.Run("activates the key and validates connectivity", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()

		rec, err := m.Init(context.Background(), "main", testConfig(fakeLifecycle(&acquired)))
		require.NoError(t, err)
		require.Equal(t, pool.StateActive, m.State("main"))
		require.Same(t, acquired[0], rec.Datasource)
		require.Equal(t, int64(1), acquired[0].pings.Load(), "init must ping once")
	})

	t.Run("rejects double init", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		_, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		_, err = m.Init(context.Background(), "main", cfg)
		require.ErrorIs(t, err, pool.ErrAlreadyInitialized)
	})

	t.Run("unresolved callback name is a configuration error", func(t *testing.T) {
		t.Parallel()

		m := pool.NewManager()
		cfg := pool.Config{Key: "main", Driver: pool.DriverMySQL, Initializer: "missing"}

		_, err := m.Init(context.Background(), "main", cfg)
		require.ErrorIs(t, err, pool.ErrUnresolvedCallback)
	})

	t.Run("unknown key operations fail", func(t *testing.T) {
		t.Parallel()

		m := pool.NewManager()
		_, err := m.Get("nope")
		require.ErrorIs(t, err, pool.ErrUnknownDatabase)
		require.ErrorIs(t, m.Halt(context.Background(), "nope"), pool.ErrUnknownDatabase)
	})
}

func TestManager_SuspendResume(t *testing.T) {
	t.Parallel()

	t.Run("suspend replaces the record, not the datasource", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		first, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)

		suspended, err := m.Suspend(context.Background(), "main")
		require.NoError(t, err)
		require.Equal(t, pool.StateSuspended, m.State("main"))
		require.NotSame(t, first, suspended, "record must be replaced")
		require.Same(t, first.Datasource, suspended.Datasource)
		require.True(t, acquired[0].suspended.Load())

		_, err = m.Acquire("main")
		require.ErrorIs(t, err, pool.ErrPoolSuspended)
	})

	t.Run("suspend without callback degrades to halt", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		lc := fakeLifecycle(&acquired)
		lc.Suspend = nil
		m := pool.NewManager()

		_, err := m.Init(context.Background(), "main", testConfig(lc))
		require.NoError(t, err)

		rec, err := m.Suspend(context.Background(), "main")
		require.NoError(t, err)
		require.Nil(t, rec)
		require.Equal(t, pool.StateClosed, m.State("main"))
		require.True(t, acquired[0].closed.Load())
	})

	t.Run("no-op config change resumes the same datasource instance", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		_, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		_, err = m.Suspend(context.Background(), "main")
		require.NoError(t, err)

		// Same data fields, different callback wiring.
		reloaded := testConfig(fakeLifecycle(&acquired))
		resumed, err := m.Resume(context.Background(), "main", reloaded)
		require.NoError(t, err)
		require.Equal(t, pool.StateActive, m.State("main"))
		require.Len(t, acquired, 1, "resume must not acquire a new pool")
		require.Same(t, acquired[0], resumed.Datasource)
		require.False(t, acquired[0].suspended.Load())
	})

	t.Run("data-bearing config change halts and reinitializes", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		_, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		_, err = m.Suspend(context.Background(), "main")
		require.NoError(t, err)

		changed := cfg
		changed.Database = "app_v2"
		resumed, err := m.Resume(context.Background(), "main", changed)
		require.NoError(t, err)
		require.Equal(t, pool.StateActive, m.State("main"))
		require.Len(t, acquired, 2, "changed config must acquire a fresh pool")
		require.True(t, acquired[0].closed.Load(), "old pool must be halted")
		require.Same(t, acquired[1], resumed.Datasource)
	})
}

func TestManager_Halt(t *testing.T) {
	t.Parallel()

	t.Run("closed is terminal for the record", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		_, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		require.NoError(t, m.Halt(context.Background(), "main"))
		require.True(t, acquired[0].closed.Load())

		_, err = m.Get("main")
		require.ErrorIs(t, err, pool.ErrPoolClosed)

		// Halt on a closed key is a no-op.
		require.NoError(t, m.Halt(context.Background(), "main"))
	})

	t.Run("init after halt starts a fresh generation", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		cfg := testConfig(fakeLifecycle(&acquired))

		_, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		require.NoError(t, m.Halt(context.Background(), "main"))

		rec, err := m.Init(context.Background(), "main", cfg)
		require.NoError(t, err)
		require.Len(t, acquired, 2)
		require.Same(t, acquired[1], rec.Datasource)
	})

	t.Run("close all halts every active key", func(t *testing.T) {
		t.Parallel()

		var acquired []*fakeDS
		m := pool.NewManager()
		lc := fakeLifecycle(&acquired)

		for _, key := range []string{"a", "b"} {
			cfg := testConfig(lc)
			cfg.Key = key
			_, err := m.Init(context.Background(), key, cfg)
			require.NoError(t, err)
		}

		require.NoError(t, m.CloseAll(context.Background()))
		for _, ds := range acquired {
			require.True(t, ds.closed.Load())
		}
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	var acquired []*fakeDS
	m := pool.NewManager()
	_, err := m.Init(context.Background(), "main", testConfig(fakeLifecycle(&acquired)))
	require.NoError(t, err)

	probe := pool.Healthcheck(m, "main")
	require.NoError(t, probe(context.Background()))
	require.Equal(t, int64(2), acquired[0].pings.Load(), "init ping plus probe ping")
}

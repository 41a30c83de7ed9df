package dbkit_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbkit"
	"github.com/dbkit-go/dbkit/pkg/coerce"
	"github.com/dbkit-go/dbkit/pkg/logger"
	"github.com/dbkit-go/dbkit/pkg/migrate"
	"github.com/dbkit-go/dbkit/pkg/pool"
)

type nopDS struct{}

func (nopDS) Close() error { return nil }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("wires the components", func(t *testing.T) {
		t.Parallel()

		svc, err := dbkit.New()
		require.NoError(t, err)
		defer svc.Close()

		require.NotNil(t, svc.Registry())
		require.NotNil(t, svc.Builder())
		require.NotNil(t, svc.Pools())
		require.NotNil(t, svc.Migrations())
	})

	t.Run("rejects a migration set without a database", func(t *testing.T) {
		t.Parallel()

		_, err := dbkit.New(dbkit.WithMigrations(map[string]migrate.Set{
			"orphan": {},
		}))
		require.ErrorIs(t, err, dbkit.ErrUnknownDatabase)
	})
}

func TestService_BuildAndMarshal(t *testing.T) {
	t.Parallel()

	reg := coerce.NewRegistry()
	require.NoError(t, reg.Register("users", "email", func(v any) (any, error) {
		return strings.ToLower(v.(string)), nil
	}, func(v any) (any, error) { return v, nil }))

	svc, err := dbkit.New(dbkit.WithRegistry(reg))
	require.NoError(t, err)
	defer svc.Close()

	q := svc.Build("select %(id) from %[u] where email = ?", dbkit.Subs{
		"id": "users/id",
		"u":  "users/id",
	})
	require.Equal(t, "select `id` from `users` where email = ?", q)

	args, err := svc.Marshal(dbkit.Table("users"), dbkit.Col("email"), "Ada@Example.COM")
	require.NoError(t, err)
	require.Equal(t, []any{"ada@example.com"}, args)
}

func TestService_ExecUnknownKey(t *testing.T) {
	t.Parallel()

	svc, err := dbkit.New()
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Exec(context.Background(), "nope", "delete from %[t]", dbkit.Subs{"t": "users"})
	require.ErrorIs(t, err, dbkit.ErrUnknownDatabase)
}

func TestService_InitAndClose(t *testing.T) {
	t.Parallel()

	lc := &pool.Lifecycle{
		Acquire: func(context.Context, pool.Config) (any, error) {
			return nopDS{}, nil
		},
	}

	svc, err := dbkit.New(
		dbkit.WithLogger(logger.NewNope()),
		dbkit.WithDatabases(map[string]pool.Config{
			"main": {Key: "main", Driver: pool.DriverMySQL, Lifecycle: lc},
		}),
	)
	require.NoError(t, err)

	require.NoError(t, svc.Init(context.Background()))
	require.Equal(t, pool.StateActive, svc.Pools().State("main"))

	require.NoError(t, svc.Close())
	require.Equal(t, pool.StateClosed, svc.Pools().State("main"))
}

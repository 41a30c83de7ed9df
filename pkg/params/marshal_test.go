package params_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbkit/pkg/coerce"
	"github.com/dbkit-go/dbkit/pkg/params"
)

// newRegistry builds a registry where users/email upper-cases and the
// column-level "status" coercer prefixes values, with call counters so
// tests can observe batching.
func newRegistry(t *testing.T) (*coerce.Registry, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	reg := coerce.NewRegistry()
	require.NoError(t, reg.Register("users", "email", func(v any) (any, error) {
		calls.Add(1)
		return strings.ToUpper(v.(string)), nil
	}, func(v any) (any, error) { return v, nil }))
	require.NoError(t, reg.Register("", "status", func(v any) (any, error) {
		calls.Add(1)
		return "st:" + v.(string), nil
	}, func(v any) (any, error) { return v, nil }))
	return reg, &calls
}

func TestMarshal_Scoping(t *testing.T) {
	t.Parallel()

	t.Run("table scope persists across values", func(t *testing.T) {
		t.Parallel()

		reg, _ := newRegistry(t)
		out, err := params.Marshal(reg,
			params.Table("users"),
			params.Col("email"), "ada@example.com",
			params.Col("email"), "bob@example.com",
		)
		require.NoError(t, err)
		require.Equal(t, []any{"ADA@EXAMPLE.COM", "BOB@EXAMPLE.COM"}, out)
	})

	t.Run("column applies to a single value only", func(t *testing.T) {
		t.Parallel()

		reg, _ := newRegistry(t)
		out, err := params.Marshal(reg,
			params.Table("users"),
			params.Col("email"), "ada@example.com",
			"plain",
		)
		require.NoError(t, err)
		require.Equal(t, []any{"ADA@EXAMPLE.COM", "plain"}, out)
	})

	t.Run("qualified key sets table and column at once", func(t *testing.T) {
		t.Parallel()

		reg, _ := newRegistry(t)
		out, err := params.Marshal(reg,
			params.Key("users/email"), "ada@example.com",
		)
		require.NoError(t, err)
		require.Equal(t, []any{"ADA@EXAMPLE.COM"}, out)
	})

	t.Run("symbolic value derives its column from its own name", func(t *testing.T) {
		t.Parallel()

		reg := coerce.NewRegistry()
		require.NoError(t, reg.Register("users", "verified", func(v any) (any, error) {
			return v.(string) == "verified", nil
		}, func(v any) (any, error) { return v, nil }))

		out, err := params.Marshal(reg, params.Table("users"), params.Sym("verified"))
		require.NoError(t, err)
		require.Equal(t, []any{true}, out)
	})

	t.Run("no table set passes values through", func(t *testing.T) {
		t.Parallel()

		reg, calls := newRegistry(t)
		out, err := params.Marshal(reg, "a", 1, params.Col("status"), "b")
		require.NoError(t, err)
		require.Equal(t, []any{"a", 1, "b"}, out)
		require.Zero(t, calls.Load(), "nothing may be coerced without a table or qualified key")
	})

	t.Run("qualified key without table part uses the column fallback", func(t *testing.T) {
		t.Parallel()

		reg, _ := newRegistry(t)
		out, err := params.Marshal(reg, params.Key("status"), "new")
		require.NoError(t, err)
		require.Equal(t, []any{"st:new"}, out)
	})

	t.Run("groups flatten in place and share scope", func(t *testing.T) {
		t.Parallel()

		reg, _ := newRegistry(t)
		out, err := params.Marshal(reg,
			params.Table("users"),
			params.Group{params.Col("email"), "ada@example.com", "plain"},
			42,
		)
		require.NoError(t, err)
		require.Equal(t, []any{"ADA@EXAMPLE.COM", "plain", 42}, out)
	})
}

func TestMarshal_OrderPreservation(t *testing.T) {
	t.Parallel()

	reg, _ := newRegistry(t)
	out, err := params.Marshal(reg,
		1,
		params.Table("users"),
		params.Col("email"), "a@x",
		2,
		params.Col("email"), "b@x",
		3,
	)
	require.NoError(t, err)
	require.Len(t, out, 5)
	require.Equal(t, []any{1, "A@X", 2, "B@X", 3}, out)
}

func TestMarshal_Deduplication(t *testing.T) {
	t.Parallel()

	t.Run("identical triples coerce once", func(t *testing.T) {
		t.Parallel()

		reg, calls := newRegistry(t)
		out, err := params.Marshal(reg,
			params.Table("users"),
			params.Col("email"), "ada@x",
			params.Col("email"), "ada@x",
			params.Col("email"), "ada@x",
		)
		require.NoError(t, err)
		require.Equal(t, []any{"ADA@X", "ADA@X", "ADA@X"}, out)
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("distinct values coerce separately", func(t *testing.T) {
		t.Parallel()

		reg, calls := newRegistry(t)
		_, err := params.Marshal(reg,
			params.Table("users"),
			params.Col("email"), "a@x",
			params.Col("email"), "b@x",
		)
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("non-comparable values coerce every time", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		reg := coerce.NewRegistry()
		require.NoError(t, reg.Register("users", "tags", func(v any) (any, error) {
			calls.Add(1)
			return strings.Join(v.([]string), ","), nil
		}, func(v any) (any, error) { return v, nil }))

		out, err := params.Marshal(reg,
			params.Table("users"),
			params.Col("tags"), []string{"a", "b"},
			params.Col("tags"), []string{"a", "b"},
		)
		require.NoError(t, err)
		require.Equal(t, []any{"a,b", "a,b"}, out)
		require.Equal(t, int64(2), calls.Load())
	})
}

func TestMarshal_ErrorPropagation(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad email")
	reg := coerce.NewRegistry()
	require.NoError(t, reg.Register("users", "email", func(any) (any, error) {
		return nil, boom
	}, func(v any) (any, error) { return v, nil }))

	_, err := params.Marshal(reg,
		params.Table("users"),
		"ok",
		params.Col("email"), "broken",
	)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "value 1")
}

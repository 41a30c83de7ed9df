package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbkit-go/dbkit/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	log := logger.New()
	require.NotNil(t, log)
	require.True(t, log.Enabled(context.Background(), slog.LevelInfo))
	require.False(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	log.Info("discarded")
	log.Error("also discarded")
}

func TestNewWithSentry_EmptyDSN(t *testing.T) {
	t.Parallel()

	// Without a DSN the logger degrades to stdout-only and must still
	// be usable.
	log := logger.NewWithSentry(logger.SentryConfig{})
	require.NotNil(t, log)
	require.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler(t *testing.T) {
	t.Parallel()

	t.Run("delivers records to every sink", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		log := slog.New(logger.NewMultiHandler(
			slog.NewTextHandler(&a, nil),
			slog.NewTextHandler(&b, nil),
		))

		log.Info("pool initialized", slog.String("key", "main"))
		require.Contains(t, a.String(), "pool initialized")
		require.Contains(t, b.String(), "pool initialized")
		require.Contains(t, a.String(), "key=main")
	})

	t.Run("respects per-sink levels", func(t *testing.T) {
		t.Parallel()

		var info, errOnly bytes.Buffer
		log := slog.New(logger.NewMultiHandler(
			slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
			slog.NewTextHandler(&errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
		))

		log.Info("routine event")
		require.Contains(t, info.String(), "routine event")
		require.Empty(t, errOnly.String(), "info record must not reach the error-level sink")

		log.Error("failure event")
		require.Contains(t, errOnly.String(), "failure event")
	})

	t.Run("attributes propagate to every sink", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		log := slog.New(logger.NewMultiHandler(
			slog.NewTextHandler(&a, nil),
			slog.NewTextHandler(&b, nil),
		)).With(slog.String("database", "main"))

		log.Info("suspended")
		require.Contains(t, a.String(), "database=main")
		require.Contains(t, b.String(), "database=main")
	})
}

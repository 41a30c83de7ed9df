// Package logger builds the slog loggers used for the database layer's
// operational events (pool transitions, migration application).
//
// New returns a JSON stdout logger. NewWithSentry additionally forwards
// warnings and errors to Sentry when a DSN is configured, falling back
// to stdout-only logging otherwise, so local development needs no
// Sentry account. NewNope discards everything; use it to silence a
// component under test.
package logger
